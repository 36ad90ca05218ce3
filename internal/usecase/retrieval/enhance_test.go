package retrieval

import "testing"

func TestEnhanceQuery(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		domain string
		want   string
	}{
		{
			name:   "domain terms and treatment modifier",
			query:  "stress management techniques",
			domain: "clinical-psychology",
			want:   "stress management techniques evidence-based clinical efficacy",
		},
		{
			name:   "first matching rule wins",
			query:  "therapy program comparison",
			domain: "",
			want:   "therapy program comparison efficacy",
		},
		{
			name:   "management modifier",
			query:  "hypertension management",
			domain: "cardiology",
			want:   "hypertension management clinical guidelines outcomes",
		},
		{
			name:   "assessment modifier",
			query:  "depression screening tools",
			domain: "",
			want:   "depression screening tools accuracy",
		},
		{
			name:   "unknown domain passes through",
			query:  "quarterly report structure",
			domain: "finance",
			want:   "quarterly report structure",
		},
		{
			name:   "keyword match is case insensitive",
			query:  "Treatment options",
			domain: "",
			want:   "Treatment options efficacy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := enhanceQuery(tt.query, tt.domain)
			if got != tt.want {
				t.Errorf("enhanceQuery(%q, %q) = %q, want %q", tt.query, tt.domain, got, tt.want)
			}
		})
	}
}
