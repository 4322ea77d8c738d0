// Package chat drives a single turn of dialogue against a remote completion
// service: it builds the system prompt, reattaches prior messages of the
// thread, invokes the completion call under a retry policy and derives the
// continuation handle for the next turn.
//
// Example usage:
//
//	c := chat.New(provider, store, chat.Options{Language: "en"}, logger)
//	reply, next := c.Chat(ctx, "Hello!", chat.Identity{})
//	reply, next = c.Chat(ctx, "And then?", next)
package chat

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a Chatter. A zero Retry policy makes a single attempt.
type Options struct {
	Instruction     string
	KnowledgeCutoff string
	Language        string
	Params          Params
	Retry           RetryPolicy
	StripPrefix     string
	Debug           bool

	Now func() time.Time // clock used for the system prompt date
	IDs IDGenerator
}

// Chatter is the single entry point of a turn. It is safe for concurrent use
// as long as its providers are.
type Chatter struct {
	systemPrompt string
	completer    CompletionProvider
	assembler    *Assembler
	invoker      *Invoker
	normalizer   *Normalizer
	params       Params
	debug        bool
	logger       zerolog.Logger
}

// New creates a Chatter. The system prompt is built once here and reused for
// every turn. A nil completer yields a Chatter whose turns always come back empty.
func New(completer CompletionProvider, history HistoryProvider, opts Options, logger zerolog.Logger) *Chatter {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	return &Chatter{
		systemPrompt: BuildSystemPrompt(opts.Instruction, opts.KnowledgeCutoff, opts.Language, now()),
		completer:    completer,
		assembler:    NewAssembler(history, logger),
		invoker:      NewInvoker(completer, opts.Retry, logger),
		normalizer:   NewNormalizer(opts.StripPrefix, opts.IDs),
		params:       opts.Params,
		debug:        opts.Debug,
		logger:       logger,
	}
}

// SystemPrompt returns the instruction sent at the start of every turn.
func (c *Chatter) SystemPrompt() string {
	return c.systemPrompt
}

// Chat runs one turn. It never returns an error and never panics: any failure
// is logged and reported as an empty reply with an empty Identity.
func (c *Chatter) Chat(ctx context.Context, message string, identity Identity) (text string, next Identity) {
	if message == "" || c.completer == nil {
		return "", Identity{}
	}

	defer func() {
		if r := recover(); r != nil {
			c.fail(fmt.Errorf("panic: %v", r), identity)
			text, next = "", Identity{}
		}
	}()

	text, next, err := c.turn(ctx, message, identity)
	if err != nil {
		c.fail(err, identity)
		return "", Identity{}
	}
	return text, next
}

func (c *Chatter) turn(ctx context.Context, message string, identity Identity) (string, Identity, error) {
	messages := c.assembler.Assemble(ctx, c.systemPrompt, message, identity)

	start := time.Now()
	reply, err := c.invoker.Invoke(ctx, messages, c.params)
	c.logger.Info().
		Dur("duration", time.Since(start)).
		Int("messages", len(messages)).
		Str("model", c.params.Model).
		Msg("completion call finished")
	if err != nil {
		return "", Identity{}, err
	}

	if c.debug {
		c.logger.Info().
			Str("content", reply.Content).
			Str("response", reply.Raw).
			Msg("raw completion response")
	}

	text, next := c.normalizer.Normalize(reply, identity)
	return text, next, nil
}

func (c *Chatter) fail(err error, identity Identity) {
	c.logger.Warn().
		Err(err).
		Str("thread_id", identity.ThreadID).
		Str("stack", string(debug.Stack())).
		Msg("chat turn failed")
}
