package tracefile_test

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
	"github.com/Sumatoshi-tech/sorttrace/pkg/tracefile"
)

func sampleDoc(t *testing.T) algorithm.Document {
	t.Helper()

	doc, errs := algorithm.Run(algorithm.MergeSortID, algorithm.NewMergeSort(), algorithm.Input{
		Array: []float64{3, 1, 4, 1, 5, 9, 2, 6},
	})
	require.Empty(t, errs)

	return doc
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"trace.json", "trace.yaml", "trace.yml", "trace.gob", "trace.lz4"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			doc := sampleDoc(t)
			path := filepath.Join(t.TempDir(), name)

			require.NoError(t, tracefile.Save(path, doc))

			loaded, err := tracefile.Load(path)
			require.NoError(t, err)

			assert.Equal(t, doc, loaded)
		})
	}
}

func TestCodecFor(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"a.json": tracefile.NameJSON,
		"a.YAML": tracefile.NameYAML,
		"a.yml":  tracefile.NameYAML,
		"a.gob":  tracefile.NameGob,
		"a.lz4":  tracefile.NameLZ4,
	}

	for path, want := range tests {
		codec, err := tracefile.CodecFor(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, codec.Name(), path)
	}

	_, err := tracefile.CodecFor("trace.xml")
	require.ErrorIs(t, err, tracefile.ErrUnknownCodec)

	_, err = tracefile.CodecByName("protobuf")
	require.ErrorIs(t, err, tracefile.ErrUnknownCodec)

	codec, err := tracefile.CodecByName("bin")
	require.NoError(t, err)
	assert.Equal(t, ".lz4", codec.Extension())
}

func TestLZ4_IsCompressed(t *testing.T) {
	t.Parallel()

	input := make([]float64, 200)
	for i := range input {
		input[i] = float64(len(input) - i)
	}

	doc, errs := algorithm.Run(algorithm.MergeSortID, algorithm.NewMergeSort(), algorithm.Input{Array: input})
	require.Empty(t, errs)

	var plain, packed bytes.Buffer

	require.NoError(t, tracefile.Write(&plain, &tracefile.JSONCodec{}, doc))
	require.NoError(t, tracefile.Write(&packed, tracefile.NewLZ4Codec(), doc))

	assert.Less(t, packed.Len(), plain.Len())
}

func TestRead_SchemaRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing operations": `{"algorithm":"merge-sort","input":{"array":[1]},"final_array":[1]}`,
		"unknown type":       `{"algorithm":"x","input":{"array":[1]},"operations":[{"type":"shuffle","indices":[0]}],"final_array":[1]}`,
		"negative index":     `{"algorithm":"x","input":{"array":[1]},"operations":[{"type":"mark","indices":[-1]}],"final_array":[1]}`,
		"string values":      `{"algorithm":"x","input":{"array":["a"]},"operations":[],"final_array":[]}`,
		"empty indices":      `{"algorithm":"x","input":{"array":[1]},"operations":[{"type":"mark","indices":[]}],"final_array":[1]}`,
	}

	for name, body := range tests {
		_, err := tracefile.Read(bytes.NewBufferString(body), tracefile.NewJSONCodec())
		require.ErrorIs(t, err, tracefile.ErrSchema, name)

		var schemaErr *tracefile.SchemaError
		require.ErrorAs(t, err, &schemaErr, name)
		assert.NotEmpty(t, schemaErr.Problems, name)
	}
}

func TestRead_YAMLSchemaRejectsMalformed(t *testing.T) {
	t.Parallel()

	body := "algorithm: merge-sort\ninput:\n  array: [2, 1]\noperations:\n  - type: teleport\n    indices: [0]\nfinal_array: [1, 2]\n"

	_, err := tracefile.Read(bytes.NewBufferString(body), tracefile.NewYAMLCodec())
	require.ErrorIs(t, err, tracefile.ErrSchema)
}

func TestRead_DecodeError(t *testing.T) {
	t.Parallel()

	_, err := tracefile.Read(bytes.NewBufferString("{not json"), tracefile.NewJSONCodec())
	require.Error(t, err)
	assert.NotErrorIs(t, err, tracefile.ErrSchema)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	require.NoError(t, tracefile.Verify(sampleDoc(t)))

	tampered := sampleDoc(t)
	tampered.FinalArray = []float64{1, 1, 2, 3, 4, 5, 6, 10}
	require.ErrorIs(t, tracefile.Verify(tampered), tracefile.ErrFinalMismatch)

	outOfRange := sampleDoc(t)
	outOfRange.Operations = append(outOfRange.Operations, operation.Mark(operation.StateSorted, 8))
	err := tracefile.Verify(outOfRange)
	require.ErrorIs(t, err, tracefile.ErrInvalidOperation)
	require.ErrorIs(t, err, operation.ErrIndexOutOfRange)

	unsorted := algorithm.Document{
		Algorithm:  "manual",
		Input:      algorithm.Input{Array: []float64{2, 1}},
		Operations: operation.Trace{operation.Compare(0, 1, 2, 1)},
		FinalArray: []float64{2, 1},
	}
	require.ErrorIs(t, tracefile.Verify(unsorted), tracefile.ErrNotSorted)
}

func TestLoad_RejectsTamperedFile(t *testing.T) {
	t.Parallel()

	doc := sampleDoc(t)
	doc.FinalArray[0] = 100

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, tracefile.Save(path, doc))

	_, err := tracefile.Load(path)
	require.ErrorIs(t, err, tracefile.ErrFinalMismatch)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := tracefile.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestSchemaIsEmbedded(t *testing.T) {
	t.Parallel()

	assert.Contains(t, string(tracefile.Schema()), `"final_array"`)
}

func TestRead_KeepsLargeSplitMetadataAsFloat(t *testing.T) {
	t.Parallel()

	doc := sampleDoc(t)

	idx := slices.IndexFunc(doc.Operations, func(op operation.Operation) bool {
		return op.Type == operation.TypeSplit
	})
	require.GreaterOrEqual(t, idx, 0)

	doc.Operations[idx].Metadata["weight"] = 1e20
	doc.Operations[idx].Metadata["ratio"] = 2.5

	var buf bytes.Buffer
	require.NoError(t, tracefile.Write(&buf, tracefile.NewJSONCodec(), doc))

	loaded, err := tracefile.Read(&buf, tracefile.NewJSONCodec())
	require.NoError(t, err)

	meta := loaded.Operations[idx].Metadata
	assert.IsType(t, 0, meta[operation.MetaMid])
	assert.InDelta(t, 1e20, meta["weight"], 0)
	assert.IsType(t, float64(0), meta["weight"])
	assert.InDelta(t, 2.5, meta["ratio"], 0)
}
