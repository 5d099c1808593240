package declgen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dtsbundle/internal/diag"
	"dtsbundle/internal/source"
)

// JSON синтезирует модуль-декларацию для JSON-файла: declare const с
// литеральным типом значения и export default. Ключи объектов сохраняют
// порядок документа.
func JSON(f *source.File, r diag.Reporter) string {
	dec := json.NewDecoder(bytes.NewReader(f.Content))
	dec.UseNumber()
	var b strings.Builder
	b.WriteString("declare const _default: ")
	if err := writeJSONType(dec, &b, 1); err != nil {
		reportJSONError(f, r, err)
		return ""
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		reportJSONError(f, r, fmt.Errorf("trailing content after JSON value"))
		return ""
	}
	b.WriteString(";\nexport default _default;\n")
	return b.String()
}

func reportJSONError(f *source.File, r diag.Reporter, err error) {
	start, end := 0, len(f.Content)
	var syn *json.SyntaxError
	if errors.As(err, &syn) && syn.Offset > 0 {
		start = int(syn.Offset) - 1
		end = min(len(f.Content), start+1)
	}
	sp := source.Span{File: f.ID, Start: uint32(start), End: uint32(end)}
	diag.ReportError(r, diag.GenInvalidJSON, sp, fmt.Sprintf("invalid JSON module: %v", err)).Emit()
}

// writeJSONType выписывает тип очередного значения потока токенов.
func writeJSONType(dec *json.Decoder, b *strings.Builder, indent int) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return writeJSONObject(dec, b, indent)
		case '[':
			return writeJSONArray(dec, b, indent)
		}
		return fmt.Errorf("unexpected delimiter %q", v.String())
	case string:
		b.WriteString(strconv.Quote(v))
	case json.Number:
		b.WriteString(v.String())
	case bool:
		if v {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case nil:
		b.WriteString("null")
	}
	return nil
}

func writeJSONObject(dec *json.Decoder, b *strings.Builder, indent int) error {
	if !dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		b.WriteString("{}")
		return nil
	}
	b.WriteString("{\n")
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", keyTok)
		}
		writeJSONIndent(b, indent)
		b.WriteString(strconv.Quote(key))
		b.WriteString(": ")
		if err := writeJSONType(dec, b, indent+1); err != nil {
			return err
		}
		b.WriteString(";\n")
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	writeJSONIndent(b, indent-1)
	b.WriteString("}")
	return nil
}

// writeJSONArray выписывает кортежный тип: каждый элемент сохраняет свой
// литеральный тип и позицию.
func writeJSONArray(dec *json.Decoder, b *strings.Builder, indent int) error {
	if !dec.More() {
		if _, err := dec.Token(); err != nil {
			return err
		}
		b.WriteString("[]")
		return nil
	}
	b.WriteString("[\n")
	for dec.More() {
		writeJSONIndent(b, indent)
		if err := writeJSONType(dec, b, indent+1); err != nil {
			return err
		}
		if dec.More() {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	writeJSONIndent(b, indent-1)
	b.WriteString("]")
	return nil
}

func writeJSONIndent(b *strings.Builder, indent int) {
	for k := 0; k < indent; k++ {
		b.WriteString(indentUnit)
	}
}
