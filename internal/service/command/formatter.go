package command

import (
	"fmt"
	"strings"
)

// ResponseFormatter renders command output as light markdown that reads
// fine in a terminal and converts cleanly for Telegram.
type ResponseFormatter struct{}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

func (f *ResponseFormatter) Info(title string) string {
	return fmt.Sprintf("**%s**\n", title)
}

func (f *ResponseFormatter) Success(message string) string {
	return fmt.Sprintf("✅ %s\n", message)
}

func (f *ResponseFormatter) Error(err error) string {
	return fmt.Sprintf("❌ **Error**: %s\n", err.Error())
}

func (f *ResponseFormatter) Label(label string, value any) string {
	return fmt.Sprintf("**%s**  ›  `%v`\n", label, value)
}

func (f *ResponseFormatter) Usage(command string) string {
	return fmt.Sprintf("**Usage**: `%s`\n", command)
}

func (f *ResponseFormatter) List(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("› ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *ResponseFormatter) Tip(text string) string {
	return fmt.Sprintf("**Tip**: %s\n", text)
}

func (f *ResponseFormatter) Combine(sections ...string) string {
	return strings.TrimRight(strings.Join(sections, ""), "\n")
}
