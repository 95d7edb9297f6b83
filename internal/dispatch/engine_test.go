package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testContracts = `{
  "tools": [
    {
      "name": "echo",
      "description": "Echo a message back.",
      "inputSchema": {
        "type": "object",
        "properties": {"message": {"type": "string"}},
        "required": ["message"]
      },
      "outputSchema": {
        "type": "object",
        "properties": {"reply": {"$ref": "#/definitions/reply"}},
        "required": ["reply"]
      }
    },
    {
      "name": "ping",
      "description": "Liveness check.",
      "inputSchema": {"type": "object"},
      "outputSchema": {
        "type": "object",
        "properties": {"ok": {"type": "boolean"}},
        "required": ["ok"]
      }
    }
  ],
  "definitions": {
    "reply": {
      "type": "object",
      "properties": {"text": {"type": "string"}},
      "required": ["text"]
    }
  }
}`

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := loadRegistryBytes([]byte(testContracts))
	require.NoError(t, err)
	return reg
}

func testHandlers(echo, ping Handler) map[string]Handler {
	if echo == nil {
		echo = func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{
				"reply": map[string]any{"text": args["message"]},
			}, nil
		}
	}
	if ping == nil {
		ping = func(context.Context, map[string]any) (any, error) {
			return map[string]any{"ok": true}, nil
		}
	}
	return map[string]Handler{"echo": echo, "ping": ping}
}

func TestEngineCallSuccess(t *testing.T) {
	eng, err := New(testRegistry(t), testHandlers(nil, nil))
	require.NoError(t, err)

	result, err := eng.Call(context.Background(), "echo", map[string]any{"message": "hello"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"reply": map[string]any{"text": "hello"},
	}, result)
}

func TestEngineUnknownTool(t *testing.T) {
	invoked := false
	handlers := testHandlers(func(context.Context, map[string]any) (any, error) {
		invoked = true
		return nil, nil
	}, nil)
	eng, err := New(testRegistry(t), handlers)
	require.NoError(t, err)

	_, err = eng.Call(context.Background(), "nope", map[string]any{"message": "x"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindUnknownTool))
	assert.False(t, invoked, "handler must not run for an unknown tool")
}

func TestEngineInputValidationBlocksHandler(t *testing.T) {
	invoked := false
	handlers := testHandlers(func(context.Context, map[string]any) (any, error) {
		invoked = true
		return map[string]any{"reply": map[string]any{"text": "x"}}, nil
	}, nil)
	eng, err := New(testRegistry(t), handlers)
	require.NoError(t, err)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"missing required", map[string]any{}},
		{"wrong type", map[string]any{"message": 42}},
		{"null required", map[string]any{"message": nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Call(context.Background(), "echo", tt.args)
			require.Error(t, err)
			assert.True(t, IsKind(err, KindInputValidationFailed), err.Error())
		})
	}
	assert.False(t, invoked, "handler must not run on invalid input")
}

func TestEngineHandlerError(t *testing.T) {
	boom := errors.New("upstream exploded")
	handlers := testHandlers(func(context.Context, map[string]any) (any, error) {
		return nil, boom
	}, nil)
	eng, err := New(testRegistry(t), handlers)
	require.NoError(t, err)

	_, err = eng.Call(context.Background(), "echo", map[string]any{"message": "x"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindHandlerError))
	assert.ErrorIs(t, err, boom)
}

func TestEngineNilResultIsHandlerError(t *testing.T) {
	handlers := testHandlers(func(context.Context, map[string]any) (any, error) {
		return nil, nil
	}, nil)
	eng, err := New(testRegistry(t), handlers)
	require.NoError(t, err)

	_, err = eng.Call(context.Background(), "echo", map[string]any{"message": "x"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindHandlerError))
}

func TestEngineOutputValidation(t *testing.T) {
	handlers := testHandlers(func(context.Context, map[string]any) (any, error) {
		// Violates the reply definition: text is required.
		return map[string]any{"reply": map[string]any{}}, nil
	}, nil)
	eng, err := New(testRegistry(t), handlers)
	require.NoError(t, err)

	_, err = eng.Call(context.Background(), "echo", map[string]any{"message": "x"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindOutputValidationFailed), err.Error())
}

func TestEngineNilArgsBecomeEmptyObject(t *testing.T) {
	var got map[string]any
	handlers := testHandlers(nil, func(_ context.Context, args map[string]any) (any, error) {
		got = args
		return map[string]any{"ok": true}, nil
	})
	eng, err := New(testRegistry(t), handlers)
	require.NoError(t, err)

	_, err = eng.Call(context.Background(), "ping", nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNewRejectsOrphans(t *testing.T) {
	t.Run("contract without handler", func(t *testing.T) {
		_, err := New(testRegistry(t), map[string]Handler{
			"echo": func(context.Context, map[string]any) (any, error) { return nil, nil },
		})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindLoadError))
	})
	t.Run("handler without contract", func(t *testing.T) {
		handlers := testHandlers(nil, nil)
		handlers["ghost"] = handlers["echo"]
		_, err := New(testRegistry(t), handlers)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindLoadError))
		assert.Contains(t, err.Error(), "ghost")
	})
}

func TestListToolsDeclarationOrder(t *testing.T) {
	eng, err := New(testRegistry(t), testHandlers(nil, nil))
	require.NoError(t, err)

	tools := eng.ListTools()
	require.Len(t, tools, 2)
	assert.Equal(t, "echo", tools[0].Name)
	assert.Equal(t, "ping", tools[1].Name)
}
