package tracefile

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

const filePerm = 0o644

// Save writes doc to path using the codec chosen by the file extension.
func Save(path string, doc algorithm.Document) error {
	codec, err := CodecFor(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	err = Write(&buf, codec, doc)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, buf.Bytes(), filePerm)
	if err != nil {
		return fmt.Errorf("write trace file: %w", err)
	}

	return nil
}

// Load reads, schema-checks and verifies the document stored at path.
func Load(path string) (algorithm.Document, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return algorithm.Document{}, err
	}

	file, err := os.Open(path)
	if err != nil {
		return algorithm.Document{}, fmt.Errorf("open trace file: %w", err)
	}
	defer file.Close()

	doc, err := Read(file, codec)
	if err != nil {
		return algorithm.Document{}, fmt.Errorf("%s: %w", path, err)
	}

	return doc, nil
}

// Write encodes doc with codec.
func Write(w io.Writer, codec Codec, doc algorithm.Document) error {
	err := codec.Encode(w, doc)
	if err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}

	return nil
}

// Read decodes a document with codec. Text encodings are checked against the
// embedded schema before they are decoded. Every document is verified.
func Read(r io.Reader, codec Codec) (algorithm.Document, error) {
	var doc algorithm.Document

	if _, isGob := codec.(*GobCodec); isGob {
		err := codec.Decode(r, &doc)
		if err != nil {
			return algorithm.Document{}, fmt.Errorf("decode trace: %w", err)
		}
	} else {
		data, err := io.ReadAll(r)
		if err != nil {
			return algorithm.Document{}, fmt.Errorf("read trace: %w", err)
		}

		var generic any

		err = codec.Decode(bytes.NewReader(data), &generic)
		if err != nil {
			return algorithm.Document{}, fmt.Errorf("decode trace: %w", err)
		}

		err = CheckSchema(generic)
		if err != nil {
			return algorithm.Document{}, err
		}

		err = codec.Decode(bytes.NewReader(data), &doc)
		if err != nil {
			return algorithm.Document{}, fmt.Errorf("decode trace: %w", err)
		}
	}

	normalize(&doc)

	err := Verify(doc)
	if err != nil {
		return algorithm.Document{}, err
	}

	return doc, nil
}

// normalize restores integer split metadata that JSON decodes as float64.
func normalize(doc *algorithm.Document) {
	for i := range doc.Operations {
		op := &doc.Operations[i]
		if op.Type != operation.TypeSplit {
			continue
		}

		for key, value := range op.Metadata {
			// Only values in the exactly representable range convert back to int.
			if f, ok := value.(float64); ok && math.Abs(f) < 1<<53 && f == math.Trunc(f) {
				op.Metadata[key] = int(f)
			}
		}
	}
}
