package main

import (
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var chatLogNamePattern = regexp.MustCompile(`^(.*)_(\d{8})_(\d{6})(_(\d+))?\.txt$`)

// ChatLogFile is the parsed identity of one chat log file.
type ChatLogFile struct {
	Path         string
	Name         string
	DateTime     time.Time
	CharacterID  string
	LastModified time.Time
}

// parseChatLogFilename derives a file's channel identity from its name.
// Returns nil for anything that is not a supported chat log: directories,
// names that do not match, legacy files without a character id suffix,
// unparseable dates, or files that cannot be stat-ed.
func parseChatLogFilename(path string) *ChatLogFile {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil
	}

	m := chatLogNamePattern.FindStringSubmatch(filepath.Base(path))
	if m == nil {
		return nil
	}
	if m[5] == "" {
		// legacy logs without a character id are unsupported
		return nil
	}

	dt, err := time.Parse("20060102_150405", m[2]+"_"+m[3])
	if err != nil {
		return nil
	}

	return &ChatLogFile{
		Path:         path,
		Name:         m[1],
		DateTime:     dt,
		CharacterID:  m[5],
		LastModified: info.ModTime(),
	}
}

// metadata builds the per-message channel metadata for this file.
func (f *ChatLogFile) metadata() ChatLogFileMetadata {
	return ChatLogFileMetadata{
		Path:        f.Path,
		ChannelName: f.Name,
		ChannelID:   f.Name + "_" + f.DateTime.Format("20060102_150405"),
		CharacterID: f.CharacterID,
	}
}
