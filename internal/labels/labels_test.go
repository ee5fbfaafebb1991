package labels

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/skelaudit-cli/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestNormalizePositional(t *testing.T) {
	raw := PositionalLabels{
		SampleName: []any{"S001", "S002", "S003"},
		Label:      []any{[]any{4}, 5, 6},
		Frame:      []any{[]any{1}, 2, []any{2}},
		VideoPath:  []any{"a.mp4", "b.mp4", "c.mp4"},
	}
	set, err := Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 2}, set.Frame)
	require.Equal(t, set.Frame, set.ClassIDs)
	require.Equal(t, []int{4, 5, 6}, set.Label)
	require.Equal(t, SourcePositional, set.Source)
	require.Len(t, set.SampleName, 3)
	require.Len(t, set.VideoPath, 3)
	require.Equal(t, 3, set.Len())
}

func TestNormalizePositionalUnequal(t *testing.T) {
	raw := PositionalLabels{
		SampleName: []any{"S001", "S002"},
		Label:      []any{1},
		Frame:      []any{1, 2},
		VideoPath:  []any{"a", "b"},
	}
	_, err := Normalize(raw)
	var lfe *LabelFormatError
	require.True(t, errors.As(err, &lfe), "got %v", err)
}

func TestNormalizeNamedPrefersIDAction(t *testing.T) {
	raw := NamedLabels{
		"id_action":   {7, 8},
		"label":       {1, 2},
		"sample_name": {"x", "y"},
	}
	set, err := Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, []int{7, 8}, set.ClassIDs)
	require.Equal(t, FieldIDAction, set.ClassField)
	require.Equal(t, []string{"x", "y"}, set.SampleName)
	require.Equal(t, []string{"", ""}, set.VideoPath)
	require.Equal(t, []string{"id_action", "label", "sample_name"}, set.Keys)
}

func TestNormalizeNamedFallsBackToLabel(t *testing.T) {
	set, err := Normalize(NamedLabels{"label": {[]any{3}, "4", 5.0}})
	require.NoError(t, err)
	require.Equal(t, []int{3, 4, 5}, set.ClassIDs)
	require.Equal(t, FieldLabel, set.ClassField)
	require.Equal(t, set.ClassIDs, set.Frame)
}

func TestNormalizeRejectsUnknownShapes(t *testing.T) {
	cases := map[string]RawLabels{
		"nil":          nil,
		"no label key": NamedLabels{"sample_name": {"a"}},
		"bad frame":    NamedLabels{"label": {1, 2}, "frame": {1}},
		"non numeric":  NamedLabels{"label": {"walk"}},
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(raw)
			var lfe *LabelFormatError
			require.True(t, errors.As(err, &lfe), "got %v", err)
		})
	}
}

func TestUnwrapIdempotent(t *testing.T) {
	require.Equal(t, 3, Unwrap([]any{3}))
	require.Equal(t, 3, Unwrap(Unwrap([]any{3})))
	require.Equal(t, int64(9), Unwrap([]int64{9}))
	require.Equal(t, "ab", Unwrap("ab"))
	require.Equal(t, []any{1, 2}, Unwrap([]any{1, 2}))
	require.Nil(t, Unwrap(nil))
}

func TestToInt(t *testing.T) {
	for _, v := range []any{2, int64(2), 2.9, float32(2), "2", []any{2}} {
		got, err := ToInt(v)
		require.NoError(t, err)
		require.Equal(t, 2, got, "value %v", v)
	}
	got, err := ToInt(true)
	require.NoError(t, err)
	require.Equal(t, 1, got)

	_, err = ToInt([]any{1, 2})
	require.Error(t, err)
}

func TestLoadPickleTuple(t *testing.T) {
	dir := t.TempDir()
	p := testutil.WritePickle(t, dir, "train_label.pkl", testutil.Tuple{
		[]any{"S1", "S2"},
		[]any{[]any{0}, []any{1}},
		[]any{10, 11},
		[]any{"v1.mp4", "v2.mp4"},
	})
	raw, err := LoadFile(p)
	require.NoError(t, err)
	_, ok := raw.(PositionalLabels)
	require.True(t, ok, "got %T", raw)
	set, err := Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, []int{10, 11}, set.ClassIDs)
	require.Equal(t, []int{0, 1}, set.Label)
}

func TestLoadPickleDict(t *testing.T) {
	dir := t.TempDir()
	p := testutil.WritePickle(t, dir, "test_label.pkl", testutil.Dict{
		Keys:   []string{"label", "id_action"},
		Values: []any{[]any{1, 1}, []any{[]any{4}, 5}},
	})
	set, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, []int{4, 5}, set.ClassIDs)
	require.Equal(t, SourceNamed, set.Source)
}

func TestLoadPickleWrongTupleArity(t *testing.T) {
	dir := t.TempDir()
	p := testutil.WritePickle(t, dir, "bad_label.pkl", testutil.Tuple{[]any{1}, []any{2}})
	_, err := LoadFile(p)
	var lfe *LabelFormatError
	require.True(t, errors.As(err, &lfe), "got %v", err)
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jp := filepath.Join(dir, "val_label.json")
	require.NoError(t, os.WriteFile(jp, []byte(`{"id_action": [[2], 3], "video_path": ["a", "b"]}`), 0o644))
	set, err := Load(jp)
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, set.ClassIDs)

	yp := filepath.Join(dir, "val_label.yaml")
	require.NoError(t, os.WriteFile(yp, []byte("- [s1, s2]\n- [1, 2]\n- [3, 4]\n- [p1, p2]\n"), 0o644))
	set, err = Load(yp)
	require.NoError(t, err)
	require.Equal(t, []int{3, 4}, set.ClassIDs)
	require.Equal(t, []string{"s1", "s2"}, set.SampleName)
}

func TestLoadPickleNumpyValues(t *testing.T) {
	dir := t.TempDir()
	p := testutil.WritePickle(t, dir, "train_label.pkl", testutil.Tuple{
		[]any{"S1", "S2", "S3"},
		[]any{testutil.NumpyInt64(7), testutil.NumpyInt64(-2), testutil.NumpyInt64(1 << 40)},
		[]any{testutil.NumpyInt64Array(3), testutil.NumpyInt64Array(4), testutil.NumpyInt64Array(3)},
		[]any{"v1.mp4", "v2.mp4", "v3.mp4"},
	})
	set, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, []int{7, -2, 1 << 40}, set.Label)
	require.Equal(t, []int{3, 4, 3}, set.ClassIDs)
}

func TestLoadPickleNumpyArrayField(t *testing.T) {
	dir := t.TempDir()
	p := testutil.WritePickle(t, dir, "val_label.pkl", testutil.Dict{
		Keys:   []string{"id_action"},
		Values: []any{testutil.NumpyInt64Array(5, 6, 5)},
	})
	set, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, []int{5, 6, 5}, set.ClassIDs)
}

func TestLoadPickleUnknownClassIsFormatError(t *testing.T) {
	dir := t.TempDir()
	p := testutil.WritePickle(t, dir, "odd_label.pkl", testutil.Reduce{
		Func: testutil.Global{Module: "pandas.core.frame", Name: "DataFrame"},
		Args: testutil.Tuple{},
	})
	_, err := LoadFile(p)
	var lfe *LabelFormatError
	require.True(t, errors.As(err, &lfe), "got %v", err)
}
