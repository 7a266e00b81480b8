package errors_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "tool",
			ID:       "jasper-ai",
		}
		assert.Equal(t, "tool with ID jasper-ai not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("catalog", "tools.json")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{
			Field:   "description",
			Message: "is required",
		}
		assert.Equal(t, "validation failed for field description: is required", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "empty record"}
		assert.Equal(t, "validation failed: empty record", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("wrap helper", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapValidation("name", nil))
		err := pkgerrors.WrapValidation("name", errors.New("blank"))
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestRecordError(t *testing.T) {
	t.Run("named record", func(t *testing.T) {
		cause := pkgerrors.NewValidationError("description", "", "is required")
		err := pkgerrors.NewRecordError("Jasper AI", 3, cause)
		assert.Contains(t, err.Error(), "Jasper AI")
		assert.Contains(t, err.Error(), "description")
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("unnamed record uses index", func(t *testing.T) {
		err := pkgerrors.NewRecordError("", 7, errors.New("missing name"))
		assert.Contains(t, err.Error(), "#7")
	})

	t.Run("reasons", func(t *testing.T) {
		errs := []*pkgerrors.RecordError{
			pkgerrors.NewRecordError("a", 0, errors.New("x")),
			pkgerrors.NewRecordError("b", 1, errors.New("y")),
		}
		assert.Equal(t, "record a rejected: x; record b rejected: y", pkgerrors.Reasons(errs))
	})
}

func TestConfigError(t *testing.T) {
	err := pkgerrors.NewConfigError("detector", "moderate threshold above name threshold", nil)
	assert.Contains(t, err.Error(), "detector")
	assert.Contains(t, err.Error(), "moderate threshold")
	assert.Nil(t, err.Unwrap())
}

func TestParseError(t *testing.T) {
	t.Run("with file", func(t *testing.T) {
		err := &pkgerrors.ParseError{
			Format:  "yaml",
			File:    "taxonomy.yaml",
			Message: "invalid indentation",
		}
		assert.Equal(t, "parse error in yaml file taxonomy.yaml: invalid indentation", err.Error())
	})

	t.Run("format only", func(t *testing.T) {
		err := &pkgerrors.ParseError{Format: "toml", Message: "syntax error"}
		assert.Contains(t, err.Error(), "toml parse error")
	})

	t.Run("wrap helper", func(t *testing.T) {
		baseErr := errors.New("EOF")
		wrapped := pkgerrors.WrapParse("json", "tools.json", baseErr)
		parseErr, ok := wrapped.(*pkgerrors.ParseError)
		require.True(t, ok)
		assert.Equal(t, "json", parseErr.Format)
		assert.Equal(t, "tools.json", parseErr.File)
		assert.Equal(t, baseErr, parseErr.Unwrap())
	})
}

func TestIOError(t *testing.T) {
	t.Run("unwrap", func(t *testing.T) {
		baseErr := errors.New("disk full")
		err := pkgerrors.NewIOError("write", "/data/catalog.json", baseErr)
		assert.Equal(t, baseErr, err.Unwrap())
		assert.Contains(t, err.Error(), "/data/catalog.json")
	})

	t.Run("wrap helper", func(t *testing.T) {
		err := pkgerrors.WrapIO("read", "raw.json", errors.New("permission denied"))
		ioErr, ok := err.(*pkgerrors.IOError)
		require.True(t, ok)
		assert.Equal(t, "read", ioErr.Operation)
		assert.Nil(t, pkgerrors.WrapIO("read", "raw.json", nil))
	})
}

func TestResourceError(t *testing.T) {
	err := &pkgerrors.ResourceError{
		Operation: "save",
		Resource:  "tool",
		ID:        "jasper-ai",
		Message:   "already exists",
		Err:       pkgerrors.ErrAlreadyExists,
	}
	assert.Contains(t, err.Error(), "save tool jasper-ai")
	assert.True(t, pkgerrors.IsAlreadyExists(err))

	wrapped := pkgerrors.WrapResource("open", "store", "", pkgerrors.ErrClosed)
	assert.True(t, pkgerrors.IsClosed(wrapped))
	assert.Contains(t, wrapped.Error(), "failed to open store")
}
