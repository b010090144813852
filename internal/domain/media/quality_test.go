package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualityConstraint_MoreRestrictiveThan(t *testing.T) {
	tests := []struct {
		name     string
		c        QualityConstraint
		other    QualityConstraint
		expected bool
	}{
		{
			name:     "cap is more restrictive than auto",
			c:        MaxResolution(854, 480),
			other:    Auto(),
			expected: true,
		},
		{
			name:     "lower cap is more restrictive",
			c:        MaxResolution(640, 360),
			other:    MaxResolution(854, 480),
			expected: true,
		},
		{
			name:     "same cap is not more restrictive",
			c:        MaxResolution(854, 480),
			other:    MaxResolution(854, 480),
			expected: false,
		},
		{
			name:     "auto is not more restrictive than a cap",
			c:        Auto(),
			other:    MaxResolution(854, 480),
			expected: false,
		},
		{
			name:     "force minimum beats any cap",
			c:        ForceMinimum(),
			other:    MaxResolution(256, 144),
			expected: true,
		},
		{
			name:     "force maximum equals auto",
			c:        ForceMaximum(),
			other:    Auto(),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.c.MoreRestrictiveThan(tt.other))
		})
	}
}

func TestQualityConstraint_String(t *testing.T) {
	assert.Equal(t, "auto", Auto().String())
	assert.Equal(t, "max:1280x720", MaxResolution(1280, 720).String())
	assert.Equal(t, "min", ForceMinimum().String())
	assert.Equal(t, "max", ForceMaximum().String())
}

func TestParseConstraint(t *testing.T) {
	tests := []struct {
		in      string
		want    QualityConstraint
		wantErr bool
	}{
		{in: "auto", want: Auto()},
		{in: "", want: Auto()},
		{in: "MIN", want: ForceMinimum()},
		{in: "max", want: ForceMaximum()},
		{in: "854x480", want: MaxResolution(854, 480)},
		{in: "max:1280x720", want: MaxResolution(1280, 720)},
		{in: "0x480", wantErr: true},
		{in: "hd", wantErr: true},
		{in: "1280x", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseConstraint(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConstraint)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
