package main

import (
	"testing"

	"petconnect/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
swagger: "2.0"
paths:
  /pets:
    post:
      responses:
        "201": {description: Created}
        "400": {description: Bad Request}
  /missing-pets/{id}:
    get:
      responses:
        "200": {description: OK}
    x-internal: true
`

func TestParseSpec_YAML(t *testing.T) {
	spec, err := parseSpec([]byte(baseYAML))
	require.NoError(t, err)
	require.Contains(t, spec.Paths, "/pets")
	assert.Contains(t, spec.Paths["/pets"]["post"].Responses, "201")
	assert.Len(t, spec.Paths["/missing-pets/{id}"], 1, "vendor extensions are not operations")

	_, err = parseSpec([]byte("swagger: '2.0'"))
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	base, err := parseSpec([]byte(baseYAML))
	require.NoError(t, err)

	tests := []struct {
		name     string
		revision string
		issues   []string
	}{
		{"identical", baseYAML, nil},
		{
			"removed path and response",
			`
paths:
  /pets:
    post:
      responses:
        "201": {description: Created}
`,
			[]string{
				"removed path: /missing-pets/{id}",
				"removed response code: POST /pets -> 400",
			},
		},
		{
			"removed operation",
			`
paths:
  /pets:
    get:
      responses:
        "200": {description: OK}
  /missing-pets/{id}:
    get:
      responses:
        "200": {description: OK}
`,
			[]string{"removed operation: POST /pets"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rev, err := parseSpec([]byte(tt.revision))
			require.NoError(t, err)
			assert.Equal(t, tt.issues, compare(base, rev))
		})
	}
}

func TestCompiledDocsParse(t *testing.T) {
	spec, err := parseSpec([]byte(docs.SwaggerInfo.ReadDoc()))
	require.NoError(t, err)
	assert.Contains(t, spec.Paths, "/missing-pets/{id}/contact")
	assert.Contains(t, spec.Paths["/orders/checkout"], "post")
}
