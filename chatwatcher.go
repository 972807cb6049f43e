package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	freshWindow     = 2 * time.Minute
	relevanceWindow = 10 * time.Minute
	contextWindow   = 5 * time.Minute
	contextLimit    = 10

	// per-channel history retention; the context window only ever needs the
	// most recent few minutes of a channel
	channelHistoryLimit = 200

	localChannelName    = "Local"
	systemAuthor        = "EVE System"
	channelChangeMarker = "Channel changed to Local : "
)

// ChatLogWatcherDeps are the collaborators of a ChatLogWatcher.
type ChatLogWatcherDeps struct {
	Settings   *Settings
	Tokenizer  Tokenizer
	Chooser    TokenizationChooser
	Classifier UnderstandingClassifier
	Resolver   EntityResolver
	Intel      IntelSink
	Alerts     AlertSink
	Location   LocationSink
	Errors     ErrorReporter
	Metrics    *Metrics
}

// ChatLogWatcher orchestrates the chat side of intel fusion: it observes the
// log directory, turns appended lines into channel messages, filters and
// tokenizes them, enriches character mentions, assembles conversational
// context and forwards the result to the state sink.
//
// Each channel gets its own mailbox consumed by a single worker goroutine,
// so same-channel messages are processed strictly in arrival order while
// different channels proceed concurrently.
type ChatLogWatcher struct {
	deps     ChatLogWatcherDeps
	observer *DirectoryObserver
	tailer   *LogTailer
	dedup    *MessageDeduplicator
	clock    func() time.Time

	ctx        context.Context
	currentDir string

	mu        sync.Mutex
	mailboxes map[string]chan ChannelChatMessage
	histories map[string][]ParsedChannelChatMessage
	wg        sync.WaitGroup
}

func NewChatLogWatcher(deps ChatLogWatcherDeps) *ChatLogWatcher {
	w := &ChatLogWatcher{
		deps:      deps,
		observer:  NewDirectoryObserver(),
		dedup:     NewMessageDeduplicator(),
		clock:     time.Now,
		mailboxes: make(map[string]chan ChannelChatMessage),
		histories: make(map[string][]ParsedChannelChatMessage),
	}
	w.tailer = NewLogTailer(w.Submit)
	return w
}

// Run watches the resolved chat log directory until ctx is cancelled,
// re-resolving whenever settings change. An undetectable directory is not
// an error: the watcher idles and resumes on the next settings change.
func (w *ChatLogWatcher) Run(ctx context.Context) {
	w.ctx = ctx
	defer w.observer.Stop()

	changes := w.deps.Settings.Subscribe()
	w.watchCurrentDir()

	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			w.watchCurrentDir()
		}
	}
}

func (w *ChatLogWatcher) watchCurrentDir() {
	dir := w.deps.Settings.resolveChatLogDir()
	if dir == "" {
		if w.currentDir != "" {
			w.observer.Stop()
			w.currentDir = ""
		}
		log.Warn().Msg("no chat log directory found, chat intel idle")
		return
	}
	if dir == w.currentDir {
		return
	}

	w.tailer.Seed(dir)
	if err := w.observer.Observe(dir, func(ev FileEvent) {
		w.tailer.HandleEvent(ev, dir)
	}); err != nil {
		w.currentDir = ""
		return
	}
	w.currentDir = dir
	log.Info().Str("dir", dir).Msg("watching chat logs")
}

// Submit routes one raw channel message into its channel's mailbox.
func (w *ChatLogWatcher) Submit(msg ChannelChatMessage) {
	w.deps.Metrics.ChatLineSeen()

	// location inference from the Local channel bypasses intel relevance
	// entirely; it is cheaper than a network call and always checked
	if msg.Metadata.ChannelName == localChannelName &&
		msg.Message.Author == systemAuthor &&
		strings.HasPrefix(msg.Message.Text, channelChangeMarker) {
		system := strings.TrimSpace(strings.TrimPrefix(msg.Message.Text, channelChangeMarker))
		if system != "" && w.deps.Location != nil {
			w.deps.Location.CharacterMoved(system, msg.Message.Timestamp, msg.Metadata.CharacterID)
		}
	}

	if w.dedup.IsDuplicate(msg.Message) {
		w.deps.Metrics.ChatDuplicate()
		return
	}

	name := msg.Metadata.ChannelName
	w.mu.Lock()
	box, ok := w.mailboxes[name]
	if !ok {
		box = make(chan ChannelChatMessage, 64)
		w.mailboxes[name] = box
		w.wg.Add(1)
		go w.channelWorker(box)
	}
	w.mu.Unlock()

	select {
	case box <- msg:
	default:
		// never block the tailer on a slow channel
		log.Debug().Str("channel", name).Msg("channel mailbox full, dropping line")
	}
}

func (w *ChatLogWatcher) channelWorker(box <-chan ChannelChatMessage) {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case msg := <-box:
			w.process(w.ctx, msg)
		}
	}
}

func (w *ChatLogWatcher) process(ctx context.Context, msg ChannelChatMessage) {
	defer func() {
		if r := recover(); r != nil {
			w.deps.Errors.Report("chatwatcher", fmt.Errorf("message processing panic: %v", r))
		}
	}()

	now := w.clock()
	age := now.Sub(msg.Message.Timestamp)

	// freshness is independent of relevance: every fresh line reaches the
	// alert trigger, even from channels not configured for fusion
	fresh := age < freshWindow
	if fresh && w.deps.Alerts != nil {
		w.deps.Alerts.NotifyChatMessage(msg)
	}

	regions := w.deps.Settings.IntelChannelRegions(msg.Metadata.ChannelName)
	if len(regions) == 0 {
		return
	}
	if msg.Message.Author == systemAuthor {
		return
	}
	if age >= relevanceWindow {
		return
	}

	candidates := w.deps.Tokenizer.Tokenize(msg.Message.Text, regions)
	if len(candidates) == 0 {
		return
	}
	chosen := w.deps.Chooser.Choose(candidates)

	w.resolveMentions(ctx, chosen.Tokens)

	msgContext := w.contextFor(msg.Metadata.ChannelName, msg.Message.Timestamp)

	parsed := ParsedChannelChatMessage{
		Message:        msg.Message,
		ChannelRegions: regions,
		Metadata:       msg.Metadata,
		Tokens:         chosen.Tokens,
		Understanding:  w.deps.Classifier.Classify(chosen),
	}

	w.appendHistory(parsed)
	w.deps.Metrics.ChatParsed()
	w.deps.Intel.SubmitIntel(parsed, msgContext, fresh)
}

// resolveMentions resolves character detail for every character and kill
// mention concurrently, joining before return. A failed resolution leaves
// the token unresolved and is reported, never fatal.
func (w *ChatLogWatcher) resolveMentions(ctx context.Context, tokens []Token) {
	var wg sync.WaitGroup
	for i, tok := range tokens {
		switch t := tok.(type) {
		case CharacterToken:
			wg.Add(1)
			go func(i int, name string) {
				defer wg.Done()
				if d := w.resolveName(ctx, name); d != nil {
					tokens[i] = CharacterToken{Name: name, Detail: d}
				}
			}(i, t.Name)
		case KillToken:
			wg.Add(1)
			go func(i int, name string) {
				defer wg.Done()
				if d := w.resolveName(ctx, name); d != nil {
					tokens[i] = KillToken{Name: name, Detail: d}
				}
			}(i, t.Name)
		case SystemToken, ShipToken, CountToken, StatusToken, TextToken:
			// nothing to resolve
		}
	}
	wg.Wait()
}

func (w *ChatLogWatcher) resolveName(ctx context.Context, name string) *CharacterDetail {
	detail, err := w.deps.Resolver.ResolveCharacterByName(ctx, name)
	if err != nil {
		w.deps.Errors.Report("chatwatcher", fmt.Errorf("resolve character %q: %w", name, err))
		return nil
	}
	return detail
}

// contextFor returns up to contextLimit prior messages of the channel,
// newest first, restricted to those within contextWindow of ts.
func (w *ChatLogWatcher) contextFor(channel string, ts time.Time) []ParsedChannelChatMessage {
	w.mu.Lock()
	history := w.histories[channel]
	w.mu.Unlock()

	var out []ParsedChannelChatMessage
	for i := len(history) - 1; i >= 0 && len(out) < contextLimit; i-- {
		m := history[i]
		if m.Message.Timestamp.After(ts) {
			continue
		}
		if ts.Sub(m.Message.Timestamp) >= contextWindow {
			break
		}
		out = append(out, m)
	}
	return out
}

func (w *ChatLogWatcher) appendHistory(parsed ParsedChannelChatMessage) {
	name := parsed.Metadata.ChannelName

	w.mu.Lock()
	defer w.mu.Unlock()

	history := append(w.histories[name], parsed)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Message.Timestamp.Before(history[j].Message.Timestamp)
	})
	if len(history) > channelHistoryLimit {
		history = history[len(history)-channelHistoryLimit:]
	}
	w.histories[name] = history
}
