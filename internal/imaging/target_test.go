package imaging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

func TestNormalizeProblem(t *testing.T) {
	assert.Equal(t, "supervised", NormalizeProblem(""))
	assert.Equal(t, "regression", NormalizeProblem("regression"))
}

func TestEncodeTarget(t *testing.T) {
	t.Run("Categorical", func(t *testing.T) {
		data := []byte("sepal,petal,species\n5.1,1.4,setosa\n7.0,4.7,versicolor\n4.9,1.4,setosa\n6.3,6.0,virginica\n5.0,1.0,\n")

		encoded, encoding, err := EncodeTarget(data)
		require.NoError(t, err)
		require.NotNil(t, encoding)

		assert.Equal(t, "species", encoding.Column)
		assert.Equal(t, map[string]int{"setosa": 0, "versicolor": 1, "virginica": 2}, encoding.Labels)
		assert.Equal(t, "sepal,petal,species\n5.1,1.4,0\n7.0,4.7,1\n4.9,1.4,0\n6.3,6.0,2\n5.0,1.0,\n", string(encoded))
	})

	t.Run("Numeric", func(t *testing.T) {
		data := []byte("a,b,label\n1,2,0\n3,4,1\n5,6,\n")

		encoded, encoding, err := EncodeTarget(data)
		require.NoError(t, err)
		assert.Nil(t, encoding)
		assert.Equal(t, data, encoded)
	})

	t.Run("HeaderOnly", func(t *testing.T) {
		encoded, encoding, err := EncodeTarget([]byte("a,b\n"))
		require.NoError(t, err)
		assert.Nil(t, encoding)
		assert.Equal(t, []byte("a,b\n"), encoded)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, _, err := EncodeTarget([]byte("a,b\n\"open,1\n"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestExecSynthesizer_TargetEncoding(t *testing.T) {
	data := []byte("x,y,class\n1,2,no\n3,4,yes\n")
	script := writeScript(t, "mkdir -p \"$out\"\nprintf png > \"$out/a.png\"\n")

	t.Run("DefaultProblemEncodes", func(t *testing.T) {
		s := NewExecSynthesizer(script, t.TempDir(), 10*time.Second, discardLogger())

		result, err := s.Synthesize(context.Background(), data, Request{Method: "TINTO"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = Remove(result) })

		input, err := os.ReadFile(filepath.Join(filepath.Dir(result.OutputDir), "data.csv"))
		require.NoError(t, err)
		assert.Equal(t, "x,y,class\n1,2,0\n3,4,1\n", string(input))

		args, err := os.ReadFile(filepath.Join(filepath.Dir(script), "args.txt"))
		require.NoError(t, err)
		assert.Contains(t, string(args), "--problem\nsupervised\n")
	})

	t.Run("RegressionKeepsColumn", func(t *testing.T) {
		s := NewExecSynthesizer(script, t.TempDir(), 10*time.Second, discardLogger())

		result, err := s.Synthesize(context.Background(), data, Request{Method: "TINTO", Problem: "regression"})
		require.NoError(t, err)
		t.Cleanup(func() { _ = Remove(result) })

		input, err := os.ReadFile(filepath.Join(filepath.Dir(result.OutputDir), "data.csv"))
		require.NoError(t, err)
		assert.Equal(t, data, input)
	})
}
