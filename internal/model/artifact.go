package model

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fixmycity/rainfall-service/internal/domain"
	"github.com/klauspost/compress/zstd"
)

const artifactVersion = 1

// ErrArtifactVersion is returned when an artifact was written by an
// incompatible version of the trainer.
var ErrArtifactVersion = errors.New("unsupported model artifact version")

// artifact is the on-disk form of a Forest: a gob stream inside zstd.
type artifact struct {
	Version   int
	Features  []string
	Params    Params
	TrainedAt time.Time
	Records   int
	Trees     []Tree
}

// Encode writes f to w in artifact format.
func Encode(w io.Writer, f *Forest) error {
	return encodeArtifact(w, artifact{
		Version:   artifactVersion,
		Features:  f.features,
		Params:    f.params,
		TrainedAt: f.trainedAt,
		Records:   f.records,
		Trees:     f.trees,
	})
}

func encodeArtifact(w io.Writer, a artifact) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := gob.NewEncoder(enc).Encode(&a); err != nil {
		enc.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	return enc.Close()
}

// Decode reads a Forest in artifact format and checks it is structurally sound.
func Decode(r io.Reader) (*Forest, error) {
	dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd reader: %w", err)
	}
	defer dec.Close()

	var a artifact
	if err := gob.NewDecoder(dec).Decode(&a); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if a.Version != artifactVersion {
		return nil, fmt.Errorf("%w: %d", ErrArtifactVersion, a.Version)
	}
	if !slices.Equal(a.Features, domain.FeatureNames) {
		return nil, fmt.Errorf("model features %v do not match %v", a.Features, domain.FeatureNames)
	}
	if len(a.Trees) == 0 {
		return nil, ErrNotFitted
	}
	for i := range a.Trees {
		if err := checkTree(&a.Trees[i], len(a.Features)); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}

	return &Forest{
		params:    a.Params,
		features:  a.Features,
		trees:     a.Trees,
		trainedAt: a.TrainedAt,
		records:   a.Records,
	}, nil
}

// checkTree rejects trees whose split nodes point outside the node slice or
// at an earlier node, which would make prediction panic or loop.
func checkTree(t *Tree, features int) error {
	if len(t.Nodes) == 0 {
		return errors.New("empty tree")
	}
	n := int32(len(t.Nodes))
	for i, node := range t.Nodes {
		if node.Feature < 0 {
			continue
		}
		if node.Feature >= features {
			return fmt.Errorf("node %d: feature index %d out of range", i, node.Feature)
		}
		if node.Left <= int32(i) || node.Left >= n || node.Right <= int32(i) || node.Right >= n {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

// Save writes f to path, replacing any existing artifact. The artifact is
// written to a temporary file in the same directory and renamed into place,
// so readers never observe a partial file.
func Save(path string, f *Forest) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".model-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := Encode(tmp, f); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// Load reads the artifact at path.
func Load(path string) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()

	forest, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return forest, nil
}
