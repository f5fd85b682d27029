package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	type TestCase struct {
		description string
		text        string
		wantName    string
		wantArgs    []string
		wantOK      bool
	}

	testCases := []TestCase{
		{
			description: "should return lower-cased name",
			text:        "!Hello",
			wantName:    "hello",
			wantArgs:    []string{},
			wantOK:      true,
		},
		{
			description: "should split arguments",
			text:        "!so  @someone   now",
			wantName:    "so",
			wantArgs:    []string{"@someone", "now"},
			wantOK:      true,
		},
		{
			description: "not a command without prefix",
			text:        "hello there",
			wantOK:      false,
		},
		{
			description: "prefix alone is not a command",
			text:        "! hello",
			wantOK:      false,
		},
		{
			description: "empty on no input",
			text:        "",
			wantOK:      false,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			name, args, ok := ParseCommand(testCase.text, "!")

			assert.Equal(t, testCase.wantOK, ok)
			if testCase.wantOK {
				assert.Equal(t, testCase.wantName, name)
				assert.Equal(t, testCase.wantArgs, args)
			}
		})
	}
}

func TestParseCommandArgs(t *testing.T) {
	type TestCase struct {
		description string
		args        string
		want        string
	}

	testCases := []TestCase{
		{description: "should discard first word", args: "!ask 12", want: "12"},
		{description: "should only discard first word", args: "!ask 12 13", want: "12 13"},
		{description: "empty on no args", args: "!ask", want: ""},
		{description: "empty on no input", args: "", want: ""},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			assert.Equal(t, testCase.want, ParseCommandArgs(testCase.args))
		})
	}
}

func TestParseCommandType(t *testing.T) {
	assert.Equal(t, CommandTypeEvent, ParseCommandType("Event"))
	assert.Equal(t, CommandTypeMessage, ParseCommandType("message"))
	assert.Equal(t, CommandTypeCommand, ParseCommandType("whatever"))
}
