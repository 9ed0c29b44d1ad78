package template

import "testing"

func TestRenderWithHelpers(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name string
		tmpl string
		data map[string]interface{}
		want string
	}{
		{
			name: "contains block true",
			tmpl: "{{#contains agent \"manager\"}}yes{{else}}no{{/contains}}",
			data: map[string]interface{}{"agent": "customer_service_manager"},
			want: "yes",
		},
		{
			name: "contains block false",
			tmpl: "{{#contains agent \"manager\"}}yes{{else}}no{{/contains}}",
			data: map[string]interface{}{"agent": ""},
			want: "no",
		},
		{
			name: "join strings",
			tmpl: "{{join items \", \"}}",
			data: map[string]interface{}{"items": []string{"a", "b", "c"}},
			want: "a, b, c",
		},
		{
			name: "join interface slice",
			tmpl: "{{join items \"/\"}}",
			data: map[string]interface{}{"items": []interface{}{"P0420", 2}},
			want: "P0420/2",
		},
		{
			name: "triple stash keeps quotes",
			tmpl: "{{{message}}}",
			data: map[string]interface{}{"message": "what's \"up\""},
			want: "what's \"up\"",
		},
		{
			name: "empty string is falsy",
			tmpl: "{{#if eta}}within {{eta}}{{else}}soon{{/if}}",
			data: map[string]interface{}{"eta": ""},
			want: "soon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.Render(tt.tmpl, tt.data)
			if err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewEngineTwice(t *testing.T) {
	// a second engine must not re-register helpers
	a := NewEngine()
	b := NewEngine()
	for _, e := range []*Engine{a, b} {
		if _, err := e.Render("{{join x \",\"}}", map[string]interface{}{"x": []string{"a"}}); err != nil {
			t.Fatalf("Render() error = %v", err)
		}
	}
}

func TestValidateTemplate(t *testing.T) {
	engine := NewEngine()
	if err := engine.ValidateTemplate("{{#if x}}unclosed"); err == nil {
		t.Error("expected parse error for unclosed block")
	}
	if err := engine.ValidateTemplate("hello {{name}}"); err != nil {
		t.Errorf("ValidateTemplate() error = %v", err)
	}
}
