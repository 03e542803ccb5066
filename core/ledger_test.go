package core

import (
	"errors"
	"testing"
)

func TestLedger_AppendAndCopy(t *testing.T) {
	l := NewLedger()
	l.Append("bob", NewUserMessage("one"))
	l.Append("bob", NewAssistantMessage("two"))
	l.Append("carol", NewUserMessage("x"))

	msgs := l.Messages("bob")
	if len(msgs) != 2 || msgs[0].Content != "one" || msgs[1].Content != "two" {
		t.Fatalf("unexpected history: %+v", msgs)
	}
	msgs[0].Content = "changed"
	if l.Messages("bob")[0].Content != "one" {
		t.Error("Messages should return a copy")
	}

	last, ok := l.Last("bob")
	if !ok || last.Content != "two" {
		t.Fatalf("unexpected last message %+v", last)
	}
	if _, ok := l.Last("dave"); ok {
		t.Error("unknown peer should have no last message")
	}

	if got := l.Peers(); len(got) != 2 || got[0] != "bob" || got[1] != "carol" {
		t.Errorf("unexpected peers %v", got)
	}
}

func TestLedger_Clear(t *testing.T) {
	l := NewLedger()
	l.Append("bob", NewUserMessage("one"))
	l.Append("carol", NewUserMessage("two"))

	l.Clear("bob")
	if l.Len("bob") != 0 || l.Len("carol") != 1 {
		t.Fatal("Clear should only drop one peer")
	}

	l.ClearAll()
	if l.Len("carol") != 0 {
		t.Fatal("ClearAll should drop everything")
	}
}

func TestAmbiguousSpeakerError(t *testing.T) {
	var err error = &AmbiguousSpeakerError{Response: "both", Candidates: []string{"a", "b"}, Mentions: []string{"a", "b"}}
	if !errors.Is(err, ErrAmbiguousSpeaker) {
		t.Fatal("expected ErrAmbiguousSpeaker")
	}
	var ase *AmbiguousSpeakerError
	if !errors.As(err, &ase) || ase.Response != "both" {
		t.Fatal("expected to unwrap AmbiguousSpeakerError")
	}
	if !errors.Is(InvalidArgument("bad %s", "x"), ErrInvalidArgument) {
		t.Fatal("InvalidArgument must wrap ErrInvalidArgument")
	}
}
