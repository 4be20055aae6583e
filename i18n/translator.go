package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for diagnostic codes.
// data provides optional metadata to embed in the message (for example,
// "type" for the sum type name).
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	var msg string
	switch t.lang {
	case "ja":
		switch code {
		case "unsupported_shape":
			msg = "{type} は直和型 (sealed interface) ではありません"
		case "type_not_found":
			msg = "型 {type} が見つかりません"
		case "parse_error":
			msg = "解析エラー"
		case "invalid_schema":
			msg = "{type} のスキーマ記述が不正です"
		case "io_error":
			msg = "入出力エラー"
		case "unknown_variant":
			msg = "{type} の未登録のバリアントです"
		}
	default: // "en"
		switch code {
		case "unsupported_shape":
			msg = "{type} is not a sum type (sealed interface)"
		case "type_not_found":
			msg = "type {type} not found"
		case "parse_error":
			msg = "parse error"
		case "invalid_schema":
			msg = "invalid schema description for {type}"
		case "io_error":
			msg = "i/o error"
		case "unknown_variant":
			msg = "value is not a registered variant of {type}"
		}
	}
	if msg == "" {
		return code
	}
	return expand(msg, data)
}

// expand substitutes {key} placeholders; unknown keys collapse to "?".
func expand(msg string, data map[string]string) string {
	if !strings.Contains(msg, "{") {
		return msg
	}
	var b strings.Builder
	for {
		i := strings.IndexByte(msg, '{')
		if i < 0 {
			b.WriteString(msg)
			break
		}
		j := strings.IndexByte(msg[i:], '}')
		if j < 0 {
			b.WriteString(msg)
			break
		}
		b.WriteString(msg[:i])
		key := msg[i+1 : i+j]
		if v, ok := data[key]; ok && v != "" {
			b.WriteString(v)
		} else {
			b.WriteString("?")
		}
		msg = msg[i+j+1:]
	}
	return b.String()
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
