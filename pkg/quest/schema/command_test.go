package schema_test

import (
	"testing"

	"github.com/bitstr0m/micro-quest/pkg/quest/schema"
	"github.com/bitstr0m/micro-quest/pkg/questerrs"
)

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name string
		cmd  schema.Command
		want string
	}{
		{
			name: "start",
			cmd: schema.Start{Character: schema.Character{
				Name:  "Jim",
				Race:  "Human",
				Class: "Fighter",
			}},
			want: `{"Start":{"name":"Jim","race":"Human","class":"Fighter"}}`,
		},
		{
			name: "user input",
			cmd:  schema.UserInput{Text: "go north"},
			want: `{"UserInput":"go north"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schema.EncodeCommand(tt.cmd)
			if err != nil {
				t.Fatalf("EncodeCommand() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("EncodeCommand() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    schema.Command
		wantErr bool
	}{
		{
			name: "start round trip",
			data: `{"Start":{"name":"Jim","race":"Human","class":"Fighter"}}`,
			want: schema.Start{Character: schema.Character{
				Name:  "Jim",
				Race:  "Human",
				Class: "Fighter",
			}},
		},
		{
			name: "user input round trip",
			data: `{"UserInput":"go north"}`,
			want: schema.UserInput{Text: "go north"},
		},
		{
			name:    "unknown variant",
			data:    `{"Restart":"now"}`,
			wantErr: true,
		},
		{
			name:    "two variant keys",
			data:    `{"UserInput":"go north","Start":{"name":"a","race":"b","class":"c"}}`,
			wantErr: true,
		},
		{
			name:    "unknown character field",
			data:    `{"Start":{"name":"Jim","race":"Human","class":"Fighter","level":3}}`,
			wantErr: true,
		},
		{
			name:    "missing character field",
			data:    `{"Start":{"name":"Jim","race":"Human"}}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			data:    `"Start"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := schema.DecodeCommand([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("DecodeCommand() expected error, got none")
				}
				if !questerrs.IsSchemaError(err) {
					t.Errorf("DecodeCommand() error = %v, want schema error", err)
				}

				return
			}
			if err != nil {
				t.Fatalf("DecodeCommand() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DecodeCommand() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCharacterBuilderFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		build func() schema.Character
		want  schema.Character
	}{
		{
			name: "all fields set",
			build: func() schema.Character {
				return schema.NewCharacterBuilder("Mira").
					WithRace("Elf").
					WithClass("Ranger").
					Build()
			},
			want: schema.Character{Name: "Mira", Race: "Elf", Class: "Ranger"},
		},
		{
			name: "defaults",
			build: func() schema.Character {
				return schema.NewCharacterBuilder("Mira").Build()
			},
			want: schema.Character{Name: "Mira", Race: "Human", Class: "Fighter"},
		},
		{
			name: "empty inputs fall back",
			build: func() schema.Character {
				return schema.NewCharacterBuilder("  ").
					WithRace("").
					WithClass(" ").
					Build()
			},
			want: schema.Character{Name: "Adventurer", Race: "Human", Class: "Fighter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build(); got != tt.want {
				t.Errorf("Build() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
