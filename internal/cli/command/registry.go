package command

import (
	"encoding/json"
	"fmt"
	"strings"
)

// fileMarker stands in for a value that will be read from a companion *_file param.
const fileMarker = "_file_"

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service:      "code",
			Action:       "run",
			Method:       "POST",
			PathTemplate: "/api/v1/execute",
			RequiresAuth: false,
			Fields: []Field{
				{Name: "language", Aliases: []string{"lang"}, Prompt: "language (javascript|python|cpp|java)", Type: FieldString, Required: true},
				{Name: "code", Prompt: "code", Type: FieldString, Required: true},
				{Name: "code_file", Aliases: []string{"file"}, Prompt: "code_file", Type: FieldFile, Required: false},
				{Name: "input", Aliases: []string{"stdin"}, Prompt: "input", Type: FieldString, Required: false},
				{Name: "input_file", Prompt: "input_file", Type: FieldFile, Required: false},
				{Name: "problem_id", Prompt: "problem_id", Type: FieldString, Required: false},
				{Name: "cases_json", Prompt: "cases_json", Type: FieldJSON, Required: false},
				{Name: "cases_file", Prompt: "cases_file", Type: FieldFile, Required: false},
			},
		},
		{
			Service:      "code",
			Action:       "submit",
			Method:       "POST",
			PathTemplate: "/api/v1/submissions",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "problem_id", Prompt: "problem_id", Type: FieldString, Required: true},
				{Name: "language", Aliases: []string{"lang"}, Prompt: "language (javascript|python|cpp|java)", Type: FieldString, Required: true},
				{Name: "code", Prompt: "code", Type: FieldString, Required: true},
				{Name: "code_file", Aliases: []string{"file"}, Prompt: "code_file", Type: FieldFile, Required: false},
			},
		},
		{
			Service:      "submission",
			Action:       "get",
			Method:       "GET",
			PathTemplate: "/api/v1/submissions/:id",
			RequiresAuth: true,
			Fields: []Field{
				{Name: "id", Prompt: "submission_id", Type: FieldInt64, Required: true},
			},
		},
		{
			Service:      "system",
			Action:       "health",
			Method:       "GET",
			PathTemplate: "/healthz",
			RequiresAuth: false,
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Key()] = cmd
	}
	return result
}

// ApplyFileShortcuts marks inline fields as file-backed when only the file
// param was given, so prompting skips them.
func ApplyFileShortcuts(cmd Command, params Params) {
	params.Canonicalize(cmd.Fields)
	for _, pair := range [][2]string{{"code", "code_file"}, {"input", "input_file"}, {"cases_json", "cases_file"}} {
		if params.Get(pair[1]) != "" && params.Get(pair[0]) == "" {
			params.Set(pair[0], fileMarker)
		}
	}
}

// BuildRequest creates HTTP request spec based on command.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)
	path, err := buildPath(cmd.PathTemplate, params)
	if err != nil {
		return RequestSpec{}, err
	}

	var body []byte
	if cmd.Method != "GET" && cmd.Method != "DELETE" {
		payload, err := buildPayload(cmd, params)
		if err != nil {
			return RequestSpec{}, err
		}
		if payload != nil {
			body, err = json.Marshal(payload)
			if err != nil {
				return RequestSpec{}, fmt.Errorf("marshal request body failed: %w", err)
			}
		}
	}

	return RequestSpec{
		Method:  cmd.Method,
		Path:    path,
		Headers: map[string]string{},
		Body:    body,
		Auth:    cmd.RequiresAuth,
	}, nil
}

func buildPath(template string, params Params) (string, error) {
	path := template
	if strings.Contains(path, ":id") {
		value := params.Get("id")
		if value == "" {
			return "", fmt.Errorf("missing path parameter: id")
		}
		if _, err := ParseInt64(value); err != nil {
			return "", fmt.Errorf("invalid id: %w", err)
		}
		path = strings.ReplaceAll(path, ":id", strings.TrimSpace(value))
	}
	return path, nil
}

func buildPayload(cmd Command, params Params) (interface{}, error) {
	switch cmd.Key() {
	case "code run":
		return buildRunPayload(params)
	case "code submit":
		code, err := valueOrFile(params, "code", "code_file")
		if err != nil {
			return nil, err
		}
		if code == "" {
			return nil, fmt.Errorf("code is required")
		}
		return map[string]interface{}{
			"problemId": params.Get("problem_id"),
			"language":  params.Get("language"),
			"code":      code,
		}, nil
	}
	return nil, nil
}

type testCasePayload struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

func buildRunPayload(params Params) (interface{}, error) {
	code, err := valueOrFile(params, "code", "code_file")
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("code is required")
	}
	payload := map[string]interface{}{
		"language": params.Get("language"),
		"code":     code,
	}

	input, err := valueOrFile(params, "input", "input_file")
	if err != nil {
		return nil, err
	}
	if input != "" {
		payload["input"] = input
	}
	if params.Get("problem_id") != "" {
		payload["problemId"] = params.Get("problem_id")
	}

	rawCases, err := valueOrFile(params, "cases_json", "cases_file")
	if err != nil {
		return nil, err
	}
	if rawCases != "" {
		if _, err := ParseJSON(rawCases); err != nil {
			return nil, fmt.Errorf("invalid cases_json: %w", err)
		}
		var cases []testCasePayload
		if err := json.Unmarshal([]byte(rawCases), &cases); err != nil {
			return nil, fmt.Errorf("cases_json must be an array of {input, expected_output}: %w", err)
		}
		payload["testCases"] = cases
	}
	return payload, nil
}

func valueOrFile(params Params, key, fileKey string) (string, error) {
	value := params.Get(key)
	if (value == "" || value == fileMarker) && params.Get(fileKey) != "" {
		return ReadFile(params.Get(fileKey))
	}
	if value == fileMarker {
		return "", nil
	}
	return value, nil
}
