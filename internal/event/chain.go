package event

import "strings"

// Component is one segment of a message chain.
type Component interface {
	Render() string
}

// Chain is a message payload as an ordered list of components.
type Chain []Component

// String renders the chain to the text that gets logged.
func (c Chain) String() string {
	var sb strings.Builder
	for _, component := range c {
		if component != nil {
			sb.WriteString(component.Render())
		}
	}
	return sb.String()
}

// PlainChain wraps text in a single-component chain.
func PlainChain(text string) Chain {
	return Chain{Plain{Text: text}}
}

// Plain is literal text.
type Plain struct {
	Text string
}

func (p Plain) Render() string { return p.Text }

// Mention references another user.
type Mention struct {
	UserID  string
	Display string
}

func (m Mention) Render() string {
	if m.Display != "" {
		return "@" + strings.TrimPrefix(m.Display, "@")
	}
	return "@" + m.UserID
}

// Image is a picture attachment.
type Image struct {
	URL string
}

func (Image) Render() string { return "[Image]" }

// File is a document attachment.
type File struct {
	Name string
}

func (f File) Render() string {
	if f.Name == "" {
		return "[File]"
	}
	return "[File " + f.Name + "]"
}

// Sticker is a sticker, rendered with its emoji when known.
type Sticker struct {
	Emoji string
}

func (s Sticker) Render() string {
	if s.Emoji == "" {
		return "[Sticker]"
	}
	return "[Sticker " + s.Emoji + "]"
}

// Voice is a voice note.
type Voice struct{}

func (Voice) Render() string { return "[Voice]" }
