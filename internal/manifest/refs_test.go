package manifest

import "testing"

func TestParseDepEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    string
		homeRepo string
		want     ModuleRef
	}{
		{name: "bare name", entry: "step", homeRepo: "crecipe", want: ModuleRef{Repo: "crecipe", Name: "step"}},
		{name: "qualified name", entry: "infra/git", homeRepo: "crecipe", want: ModuleRef{Repo: "infra", Name: "git"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDepEntry(tt.entry, tt.homeRepo)
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestModuleRefString(t *testing.T) {
	tests := []struct {
		name string
		ref  ModuleRef
		want string
	}{
		{name: "qualified", ref: ModuleRef{Repo: "infra", Name: "git"}, want: "infra/git"},
		{name: "unqualified", ref: ModuleRef{Name: "step"}, want: "step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ref.String(); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}
