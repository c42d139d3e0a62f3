package match

import "testing"

func TestLineFormat(t *testing.T) {
	m := New("AbC123", "https://gpay.app.goo.gl/AbC123",
		"https://pay.google.com/?c=iplladdoo2025", []string{"iplladdoo2025"}, "Sparky")
	want := "https://gpay.app.goo.gl/AbC123 -> https://pay.google.com/?c=iplladdoo2025 (Laddoo Type: Sparky)"
	if got := m.Line(); got != want {
		t.Fatalf("Line() = %q, want %q", got, want)
	}
}

func TestKeyIsShortURL(t *testing.T) {
	m := New("AbC123", "https://gpay.app.goo.gl/AbC123", "https://pay.google.com/x", nil, "Other")
	if m.Key() != m.URL {
		t.Fatalf("Key() = %q, want %q", m.Key(), m.URL)
	}
}

func TestNewStampsFoundAt(t *testing.T) {
	m := New("AbC123", "u", "f", nil, "Other")
	if m.FoundAt.IsZero() {
		t.Fatal("FoundAt not stamped")
	}
}
