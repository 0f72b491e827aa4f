//nolint:varnamelen // Test files use idiomatic short variable names (t, tt, etc.)
package estimator_test

import (
	"testing"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/resync-progress/internal/estimator"
)

func TestOperationKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind     estimator.OperationKind
		expected string
	}{
		{estimator.SyncSource, "SyncSource"},
		{estimator.SyncTarget, "SyncTarget"},
		{estimator.VerifySource, "VerifyS"},
		{estimator.VerifyTarget, "VerifyT"},
		{estimator.OperationKind(42), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.expected {
			t.Errorf("OperationKind(%d).String() = %q, want %q", tt.kind, got, tt.expected)
		}
	}
}

func TestParseOperationKind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected estimator.OperationKind
		wantErr  bool
	}{
		{"SyncSource", estimator.SyncSource, false},
		{"sync-source", estimator.SyncSource, false},
		{"ss", estimator.SyncSource, false},
		{"SYNCTARGET", estimator.SyncTarget, false},
		{"st", estimator.SyncTarget, false},
		{"VerifyS", estimator.VerifySource, false},
		{"verify-source", estimator.VerifySource, false},
		{" vt ", estimator.VerifyTarget, false},
		{"verifytarget", estimator.VerifyTarget, false},
		{"resync", estimator.SyncSource, true},
		{"", estimator.SyncSource, true},
	}

	for _, tt := range tests {
		got, err := estimator.ParseOperationKind(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOperationKind(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}

		if !tt.wantErr && got != tt.expected {
			t.Errorf("ParseOperationKind(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestOperationKindTextRoundTrip(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	for _, kind := range []estimator.OperationKind{
		estimator.SyncSource, estimator.SyncTarget, estimator.VerifySource, estimator.VerifyTarget,
	} {
		text, err := kind.MarshalText()
		g.Expect(err).ShouldNot(HaveOccurred())

		var parsed estimator.OperationKind
		g.Expect(parsed.UnmarshalText(text)).To(Succeed())
		g.Expect(parsed).To(Equal(kind))
	}

	var bad estimator.OperationKind
	g.Expect(bad.UnmarshalText([]byte("sideways"))).ShouldNot(Succeed())
}

func TestOperationKindPredicates(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(estimator.SyncSource.IsVerify()).To(BeFalse())
	g.Expect(estimator.SyncTarget.IsVerify()).To(BeFalse())
	g.Expect(estimator.VerifySource.IsVerify()).To(BeTrue())
	g.Expect(estimator.VerifyTarget.IsVerify()).To(BeTrue())

	g.Expect(estimator.SyncSource.WantsTargetRate()).To(BeFalse())
	g.Expect(estimator.SyncTarget.WantsTargetRate()).To(BeTrue())
	g.Expect(estimator.VerifySource.WantsTargetRate()).To(BeTrue())
	g.Expect(estimator.VerifyTarget.WantsTargetRate()).To(BeFalse())
}
