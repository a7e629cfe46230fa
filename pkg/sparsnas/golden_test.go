package sparsnas

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wanders/sparsnasdecode/internal/testutil"
)

func TestSparsnasGolden(t *testing.T) {
	fixtures := []string{
		"kodarn",
		"kodarn_nocrc",
		"real",
		"real_bad_crc",
		"real_skip_crc",
		"wrong_serial",
		"bad_length",
	}
	for _, name := range fixtures {
		name := name
		t.Run(name, func(t *testing.T) {
			fx := testutil.LoadFixture(t, name)
			opts := AnalyzeOptions{Serial: fx.Serial, SkipCRC: fx.SkipCRC}
			result, err := AnalyzeHex(context.Background(), fx.Hex, opts)
			if fx.Error != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), fx.Error)
				require.Nil(t, result.Packet)
				return
			}
			require.NoError(t, err)
			requireFields(t, fx.Fields, result.FieldSet())
		})
	}
}

// requireFields checks every fixture field through the typed accessors and
// rejects fields the fixture does not list.
func requireFields(t *testing.T, expected map[string]any, fs FieldSet) {
	t.Helper()
	require.Len(t, fs.data, len(expected))
	for key, want := range expected {
		switch w := want.(type) {
		case float64:
			got, err := fs.Float(key)
			require.NoError(t, err, key)
			require.InDelta(t, w, got, 1e-6, key)
		case string:
			got, err := fs.String(key)
			require.NoError(t, err, key)
			require.Equal(t, w, got, key)
		default:
			t.Fatalf("fixture field %s has unsupported type %T", key, want)
		}
	}
}
