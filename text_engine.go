package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// textStrategy is one delivery mechanism for text. Strategies report a
// typed result instead of relying on exception suppression: the
// swallow-and-continue policy of the chain is visible in the signature,
// not implicit.
type textStrategy interface {
	Name() string
	Send(ctx context.Context, index int, text string) error
}

// TextEngine runs a prioritized, self-terminating chain of delivery
// strategies, short-circuiting on the first success. Worst case latency
// is the sum of the per-strategy console timeouts, i.e. multiple
// seconds; callers are told so on SendText.
//
// The chain ordering is load-bearing. The generic `input text` strategy
// silently mis-renders non-ASCII with no failure signal; there is no
// readback on the bridge to verify with, so it sits mid-chain behind the
// encoding-safe broadcasts and is additionally gated to ASCII input.
type TextEngine struct {
	bridge   managerBridge
	keyboard *KeyboardManager
}

func NewTextEngine(bridge managerBridge, keyboard *KeyboardManager) *TextEngine {
	return &TextEngine{bridge: bridge, keyboard: keyboard}
}

// strategies returns the chain in priority order.
func (e *TextEngine) strategies() []textStrategy {
	return []textStrategy{
		&broadcastStrategy{e.bridge, e.keyboard, "broadcast_enhanced", "ADB_INPUT_TEXT", encodePlain, true},
		&broadcastStrategy{e.bridge, e.keyboard, "broadcast_b64", "ADB_INPUT_B64", encodeBase64, true},
		&charCodeStrategy{e.bridge, e.keyboard},
		&inputTextStrategy{e.bridge},
		&broadcastStrategy{e.bridge, nil, "broadcast_legacy", "ADB_KEYBOARD_INPUT_TEXT", encodePlain, false},
	}
}

// SendText delivers text to one instance by running the chain. It
// returns overall success plus the per-attempt audit trail. From the
// caller's point of view the call is atomic success/fail; internally a
// strategy may have typed a prefix before failing, and without a
// readback on the bridge that limitation stands as-is.
func (e *TextEngine) SendText(ctx context.Context, index int, text string) (bool, []TextInputAttemptResult) {
	if text == "" {
		return true, nil
	}

	callID := uuid.NewString()
	timer := StartOperation("text_engine", "send_text").
		AddDetail("call_id", callID).
		AddDetail("index", index).
		AddDetail("chars", len([]rune(text)))

	var trail []TextInputAttemptResult
	for _, s := range e.strategies() {
		attempt := e.runStrategy(ctx, s, index, text)
		trail = append(trail, attempt)
		if attempt.Success {
			timer.AddDetail("strategy", s.Name()).End()
			return true, trail
		}
		// A failed broadcast send means the known-active observation was
		// wrong (the precondition silently regressed, e.g. after an
		// emulator restart); drop it so the next attempt re-checks.
		if strings.HasPrefix(s.Name(), "broadcast") {
			e.keyboard.Invalidate(index)
		}
	}

	timer.EndWithError(fmt.Errorf("all %d strategies failed", len(trail)))
	LogWarn("text_engine").
		Str("call_id", callID).
		Int("index", index).
		Int("attempts", len(trail)).
		Msg("text delivery exhausted every strategy")
	return false, trail
}

// runStrategy wraps one strategy call: neither an error nor a panic from
// a single strategy may abort the chain, only cause fallthrough.
func (e *TextEngine) runStrategy(ctx context.Context, s textStrategy, index int, text string) (result TextInputAttemptResult) {
	result = TextInputAttemptResult{Strategy: s.Name()}
	defer func() {
		if r := recover(); r != nil {
			result.Success = false
			result.Diagnostic = fmt.Sprintf("panic: %v", r)
			LogError("text_engine").Str("strategy", s.Name()).Interface("recovered", r).Msg("strategy panicked")
		}
	}()

	if err := s.Send(ctx, index, text); err != nil {
		result.Diagnostic = err.Error()
		LogDebug("text_engine").Str("strategy", s.Name()).Int("index", index).Err(err).Msg("strategy failed")
		return result
	}
	result.Success = true
	return result
}

// SendTextRouted applies the addressing policy. Broadcast-all delivers
// the identical text to every known instance and tolerates partial
// failure (at least one acceptance is a success); indexed routes to
// exactly the given instance and fails only if that instance fails.
func (e *TextEngine) SendTextRouted(ctx context.Context, mode TextInputMode, index int, text string) (bool, []TextInputAttemptResult) {
	if mode != TextModeBroadcastAll {
		return e.SendText(ctx, index, text)
	}

	instances, err := e.bridge.ListInstances(ctx)
	if err != nil || len(instances) == 0 {
		LogDebug("text_engine").Err(err).Msg("broadcast-all: enumeration unavailable, falling back to indexed")
		return e.SendText(ctx, index, text)
	}

	anyOK := false
	var trail []TextInputAttemptResult
	for _, inst := range instances {
		if !inst.Running {
			continue
		}
		ok, attempts := e.SendText(ctx, inst.Index, text)
		trail = append(trail, attempts...)
		anyOK = anyOK || ok
	}
	return anyOK, trail
}

// ---- strategies ----

func encodePlain(text string) string {
	return "'" + strings.ReplaceAll(text, "'", `'\''`) + "'"
}

func encodeBase64(text string) string {
	return base64.StdEncoding.EncodeToString([]byte(text))
}

// broadcastStrategy sends text through the virtual keyboard's broadcast
// receiver. The base64 variant exists because the raw broadcast mangles
// certain Unicode ranges on the way through the shell.
type broadcastStrategy struct {
	bridge       managerBridge
	keyboard     *KeyboardManager // nil skips the precondition dance
	name         string
	action       string
	encode       func(string) string
	precondition bool
}

func (s *broadcastStrategy) Name() string { return s.name }

func (s *broadcastStrategy) Send(ctx context.Context, index int, text string) error {
	if s.precondition && s.keyboard != nil {
		if err := s.keyboard.EnsureActive(ctx, index); err != nil {
			return err
		}
	}
	out, err := s.bridge.Shell(ctx, index,
		fmt.Sprintf("am broadcast -a %s --es msg %s", s.action, s.encode(text)))
	if err != nil {
		return err
	}
	return checkBroadcastResult(out)
}

// charCodeStrategy sends per-character numeric codes. Slowest variant
// but immune to every encoding problem the others hit.
type charCodeStrategy struct {
	bridge   managerBridge
	keyboard *KeyboardManager
}

func (s *charCodeStrategy) Name() string { return "broadcast_chars" }

func (s *charCodeStrategy) Send(ctx context.Context, index int, text string) error {
	if err := s.keyboard.EnsureActive(ctx, index); err != nil {
		return err
	}
	runes := []rune(text)
	codes := make([]string, len(runes))
	for i, r := range runes {
		codes[i] = strconv.Itoa(int(r))
	}
	out, err := s.bridge.Shell(ctx, index,
		"am broadcast -a ADB_INPUT_CHARS --eia chars '"+strings.Join(codes, ",")+"'")
	if err != nil {
		return err
	}
	return checkBroadcastResult(out)
}

// inputTextStrategy is the generic shell path: fast, but only reliable
// for ASCII. Non-ASCII input is rejected up front because the shell
// would mis-render it without reporting failure.
type inputTextStrategy struct {
	bridge managerBridge
}

func (s *inputTextStrategy) Name() string { return "shell_input_text" }

func (s *inputTextStrategy) Send(ctx context.Context, index int, text string) error {
	if !isASCIIPrintable(text) {
		return fmt.Errorf("input text is ASCII-only and cannot signal mis-rendering")
	}
	_, err := s.bridge.Shell(ctx, index, "input text "+escapeShellText(text))
	return err
}

// checkBroadcastResult inspects am's completion line. A broadcast that
// reached no receiver still exits zero, so the result code is the only
// delivery signal available.
func checkBroadcastResult(out string) error {
	if strings.Contains(out, "Broadcast completed") && !strings.Contains(out, "result=0") {
		return nil
	}
	if strings.Contains(out, "result=0") {
		return fmt.Errorf("broadcast reached no receiver")
	}
	if strings.Contains(out, "Broadcast completed") {
		return nil
	}
	return fmt.Errorf("broadcast did not complete")
}
