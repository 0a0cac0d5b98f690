package providers

import "testing"

func TestParseProviderList(t *testing.T) {
	refs := ParseProviderList("gemini|openai:backup| mock ")
	if len(refs) != 3 {
		t.Fatalf("expected 3 refs, got %d", len(refs))
	}
	if refs[0].Name != "gemini" || refs[0].KeyAlias != "" {
		t.Fatalf("unexpected first ref: %+v", refs[0])
	}
	if refs[1].Name != "openai" || refs[1].KeyAlias != "backup" {
		t.Fatalf("unexpected second ref: %+v", refs[1])
	}
	if refs[2].Name != "mock" {
		t.Fatalf("unexpected third ref: %+v", refs[2])
	}
}

func TestParseProviderListEmptyFallsBackToMock(t *testing.T) {
	refs := ParseProviderList("  ")
	if len(refs) != 1 || refs[0].Name != "mock" {
		t.Fatalf("expected mock fallback, got %+v", refs)
	}
}
