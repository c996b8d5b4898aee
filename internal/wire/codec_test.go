package wire

import (
	"encoding/base64"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := Message{
		KeyType:      TypePost,
		KeyUserID:    "alice@10.0.0.1",
		KeyContent:   "hello world",
		KeyTimestamp: "1728940000",
		KeyMessageID: "f83d2b2b11aa22bb",
	}
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(msg, got) {
		t.Fatalf("round trip mismatch:\n%v\n%v", msg, got)
	}
}

func TestRoundTripAwkwardContent(t *testing.T) {
	cases := []string{
		"colons: are: everywhere 10.0.0.1:9001",
		"line one\nline two\nline three",
		`back\slash and \n literal`,
		"trailing newline\n",
		"",
	}
	for _, content := range cases {
		msg := New(TypeDM).Set(KeyFrom, "alice@10.0.0.1").Set(KeyTo, "bob@10.0.0.2").Set(KeyContent, content)
		data, err := Encode(msg)
		if err != nil {
			t.Fatalf("encode %q: %v", content, err)
		}
		got, err := Decode(data)
		if err != nil {
			t.Fatalf("decode %q: %v", content, err)
		}
		if got.Content() != content {
			t.Fatalf("content mangled: %q != %q", got.Content(), content)
		}
	}
}

func TestRoundTripAvatarPayload(t *testing.T) {
	blob := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("png-bytes", 128)))
	msg := New(TypeProfile).
		Set(KeyUserID, "alice@10.0.0.1").
		Set(KeyAvatarType, "image/png").
		Set(KeyAvatarEncoding, "base64").
		Set(KeyAvatarData, blob)
	data, err := Encode(msg)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got[KeyAvatarData] != blob {
		t.Fatalf("avatar payload mangled")
	}
}

func TestDecodeMissingType(t *testing.T) {
	_, err := Decode([]byte("CONTENT:hi\n\n"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeMissingTerminator(t *testing.T) {
	_, err := Decode([]byte("TYPE:POST\nCONTENT:hi\n"))
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestDecodeIgnoresUnknownAndBareLines(t *testing.T) {
	payload := "TYPE:POST\nUSER_ID:alice@10.0.0.1\nFUTURE_FIELD:whatever\nnocolonhere\n\n"
	msg, err := Decode([]byte(payload))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg["FUTURE_FIELD"] != "whatever" {
		t.Fatalf("unknown keys must be preserved")
	}
	if _, ok := msg["nocolonhere"]; ok {
		t.Fatalf("colon-less lines must be skipped")
	}
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	msg := New(TypePost).Set(KeyContent, strings.Repeat("x", HardLimit+1))
	if _, err := Encode(msg); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestHardLimitFitsInOneUDPDatagram(t *testing.T) {
	const maxUDPPayload = 65507
	if HardLimit > maxUDPPayload {
		t.Fatalf("HardLimit %d exceeds the %d-byte UDP payload ceiling", HardLimit, maxUDPPayload)
	}
}

func TestEncodeAllowsSoftCapOverrun(t *testing.T) {
	msg := New(TypeProfile).Set(KeyAvatarData, strings.Repeat("a", SoftLimit+1))
	if _, err := Encode(msg); err != nil {
		t.Fatalf("soft cap must warn, not fail: %v", err)
	}
}

func TestSenderFallsBackToFrom(t *testing.T) {
	msg := Message{KeyType: TypeDM, KeyFrom: "bob@10.0.0.2"}
	if msg.Sender() != "bob@10.0.0.2" {
		t.Fatalf("expected FROM fallback, got %q", msg.Sender())
	}
	msg[KeyUserID] = "alice@10.0.0.1"
	if msg.Sender() != "alice@10.0.0.1" {
		t.Fatalf("USER_ID must win, got %q", msg.Sender())
	}
}
