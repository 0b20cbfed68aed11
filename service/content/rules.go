// Package content validates and generates post text against per-platform
// style and length rules.
package content

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/viant/crier/model"
)

// ErrTooLong is reported when text exceeds the platform limit. It blocks action creation.
var ErrTooLong = errors.New("content: exceeds platform character limit")

// ErrStyle is reported when text breaks a style rule.
var ErrStyle = errors.New("content: style violation")

var bannedWords = []string{
	"comprehensive", "sophisticated", "robust", "transformative", "leveraging",
	"seamlessly", "innovative", "cutting-edge", "state-of-the-art", "holistic",
	"synergy", "ecosystem", "paradigm", "empower", "game-changer",
	"revolutionary", "thrilled", "excited to announce",
}

var bannedOpeners = []string{
	"ever struggled", "imagine a world", "if you're like me",
	"are you tired", "check out", "don't miss",
}

var (
	hashtagExpr = regexp.MustCompile(`#\w+`)
	emojiExpr   = regexp.MustCompile(`[\x{1F600}-\x{1F64F}\x{1F300}-\x{1F5FF}\x{1F680}-\x{1F6FF}\x{1F1E0}-\x{1F1FF}` +
		`\x{2702}-\x{27B0}\x{FE00}-\x{FE0F}\x{1F900}-\x{1F9FF}\x{1FA00}-\x{1FA6F}\x{1FA70}-\x{1FAFF}\x{2600}-\x{26FF}]+`)
)

// Violation is a single rule breach.
type Violation struct {
	Err    error
	Detail string
}

func (v Violation) Error() string { return v.Detail }

func (v Violation) Unwrap() error { return v.Err }

// Violations is the outcome of Validate.
type Violations []Violation

// Blocking reports whether any violation prevents action creation.
func (v Violations) Blocking() bool {
	for _, item := range v {
		if errors.Is(item.Err, ErrTooLong) {
			return true
		}
	}
	return false
}

// Err joins violations into an error, or nil when clean.
func (v Violations) Err() error {
	if len(v) == 0 {
		return nil
	}
	errs := make([]error, len(v))
	for i := range v {
		errs[i] = v[i]
	}
	return errors.Join(errs...)
}

// Details lists violation descriptions.
func (v Violations) Details() []string {
	ret := make([]string, len(v))
	for i, item := range v {
		ret[i] = item.Detail
	}
	return ret
}

// Validate checks text against length and style rules for platform.
func Validate(text string, platform model.Platform) Violations {
	var ret Violations
	lower := strings.ToLower(text)

	limit := platform.CharLimit()
	if n := utf8.RuneCountInString(text); n > limit {
		ret = append(ret, Violation{Err: ErrTooLong, Detail: fmt.Sprintf("too long: %d chars, limit is %d for %s", n, limit, platform)})
	}
	for _, word := range bannedWords {
		if strings.Contains(lower, word) {
			ret = append(ret, Violation{Err: ErrStyle, Detail: "banned word: " + word})
		}
	}
	for _, opener := range bannedOpeners {
		if strings.HasPrefix(lower, opener) {
			ret = append(ret, Violation{Err: ErrStyle, Detail: "banned opener: " + opener})
		}
	}
	if n := len(hashtagExpr.FindAllString(text, -1)); n > 1 {
		ret = append(ret, Violation{Err: ErrStyle, Detail: fmt.Sprintf("too many hashtags: %d (max 1)", n)})
	}
	if n := strings.Count(text, "!"); n > 1 {
		ret = append(ret, Violation{Err: ErrStyle, Detail: fmt.Sprintf("too many exclamation marks: %d (max 1)", n)})
	}
	if n := len(emojiExpr.FindAllString(text, -1)); n > 2 {
		ret = append(ret, Violation{Err: ErrStyle, Detail: fmt.Sprintf("too many emoji: %d (max 2)", n)})
	}
	return ret
}

// CheckLength returns ErrTooLong when text does not fit the platform.
func CheckLength(text string, platform model.Platform) error {
	if n, limit := utf8.RuneCountInString(text), platform.CharLimit(); n > limit {
		return fmt.Errorf("%w: %d > %d for %s", ErrTooLong, n, limit, platform)
	}
	return nil
}
