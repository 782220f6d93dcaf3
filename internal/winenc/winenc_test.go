package winenc

import "testing"

func TestRoundTripASCII(t *testing.T) {
	const want = "Dawnguard.esm"
	encoded, err := Encode(want)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded != want {
		t.Errorf("round trip = %q, want %q", decoded, want)
	}
}

func TestDecodeLatin1Byte(t *testing.T) {
	// 0xE9 is 'é' in Windows-1252 but would be invalid standalone UTF-8.
	decoded, err := Decode([]byte{0xE9, '.', 'e', 's', 'p'})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if decoded != "é.esp" {
		t.Errorf("Decode() = %q, want %q", decoded, "é.esp")
	}
}
