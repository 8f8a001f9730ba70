package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest_ActiveStage(t *testing.T) {
	tests := []struct {
		name     string
		manifest *Manifest
		wantUUID string
	}{
		{
			name:     "no stages",
			manifest: &Manifest{UUID: "m1"},
			wantUUID: "",
		},
		{
			name: "single open stage",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "s1", Committed: false},
				},
			},
			wantUUID: "s1",
		},
		{
			name: "all stages committed",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "s1", Committed: true},
					{UUID: "s2", Committed: true},
				},
			},
			wantUUID: "",
		},
		{
			name: "open stage after committed stages",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "s1", Committed: true},
					{UUID: "s2", Committed: true},
					{UUID: "s3", Committed: false},
				},
			},
			wantUUID: "s3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active := tt.manifest.ActiveStage()
			if tt.wantUUID == "" {
				assert.Nil(t, active)
				return
			}
			require.NotNil(t, active)
			assert.Equal(t, tt.wantUUID, active.UUID)
		})
	}
}

func TestManifest_ActiveStageIsAddressable(t *testing.T) {
	// Mutations through the returned pointer must land in the manifest.
	m := &Manifest{
		UUID:   "m1",
		Stages: []Stage{{UUID: "s1"}},
	}

	active := m.ActiveStage()
	require.NotNil(t, active)
	active.PatchSets = append(active.PatchSets, "ps1")

	assert.Equal(t, []string{"ps1"}, m.Stages[0].PatchSets)
}

func TestManifest_EffectiveSequence(t *testing.T) {
	tests := []struct {
		name     string
		manifest *Manifest
		want     []string
	}{
		{
			name:     "empty manifest",
			manifest: &Manifest{UUID: "m1"},
			want:     nil,
		},
		{
			name: "stage order then append order",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "s1", PatchSets: []string{"p1", "p2"}, Committed: true},
					{UUID: "s2", PatchSets: []string{"p3"}, Committed: true},
					{UUID: "s3", PatchSets: []string{"p4", "p5"}},
				},
			},
			want: []string{"p1", "p2", "p3", "p4", "p5"},
		},
		{
			name: "open stage included",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "s1", PatchSets: []string{"p1"}, Committed: true},
					{UUID: "s2", PatchSets: []string{"p2"}},
				},
			},
			want: []string{"p1", "p2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.manifest.EffectiveSequence())
		})
	}
}

func TestManifest_CommittedSequence(t *testing.T) {
	m := &Manifest{
		UUID: "m1",
		Stages: []Stage{
			{UUID: "s1", PatchSets: []string{"p1", "p2"}, Committed: true},
			{UUID: "s2", PatchSets: []string{"p3"}},
		},
	}

	assert.Equal(t, []string{"p1", "p2"}, m.CommittedSequence())
}

func TestManifest_BranchName(t *testing.T) {
	tests := []struct {
		name     string
		manifest *Manifest
		want     string
	}{
		{
			name:     "no stages",
			manifest: &Manifest{UUID: "m1"},
			want:     "ces-v25.03.2",
		},
		{
			name: "single rc tag",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "s1", Tags: []Tag{{Name: "rc", N: 1}}, PatchSets: []string{"p1"}, Committed: true},
				},
			},
			want: "ces-v25.03.2-rc.1",
		},
		{
			name: "multiple tags on one stage",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "s1", Tags: []Tag{{Name: "rc", N: 4}, {Name: "dev", N: 1}}, PatchSets: []string{"p1"}, Committed: true},
				},
			},
			want: "ces-v25.03.2-rc.4-dev.1",
		},
		{
			name: "labels accumulate across stages in creation order",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "s1", Tags: []Tag{{Name: "rc", N: 1}}, PatchSets: []string{"p1"}, Committed: true},
					{UUID: "s2", Tags: []Tag{{Name: "rc", N: 2}}, PatchSets: []string{"p2"}, Committed: true},
				},
			},
			want: "ces-v25.03.2-rc.1-rc.2",
		},
		{
			name: "empty open stage contributes no label",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "s1", Tags: []Tag{{Name: "rc", N: 1}}, PatchSets: []string{"p1"}, Committed: true},
					{UUID: "s2", Tags: []Tag{{Name: "rc", N: 2}}},
				},
			},
			want: "ces-v25.03.2-rc.1",
		},
		{
			name: "untagged stage falls back to short uuid label",
			manifest: &Manifest{
				UUID: "m1",
				Stages: []Stage{
					{UUID: "0b1c2d3e-aaaa-bbbb-cccc-000000000000", PatchSets: []string{"p1"}, Committed: true},
				},
			},
			want: "ces-v25.03.2-stage-0b1c2d3e",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.manifest.BranchName("ces-v25.03.2"))
		})
	}
}

func TestStage_Label(t *testing.T) {
	s := &Stage{
		UUID: "abc",
		Tags: []Tag{{Name: "rc", N: 2}, {Name: "hotfix", N: 1}},
	}
	assert.Equal(t, "rc.2-hotfix.1", s.Label())
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		input   string
		want    Tag
		wantErr bool
	}{
		{input: "rc=1", want: Tag{Name: "rc", N: 1}},
		{input: "dev=12", want: Tag{Name: "dev", N: 12}},
		{input: "rc", wantErr: true},
		{input: "=3", wantErr: true},
		{input: "rc=x", wantErr: true},
		{input: "rc=-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tag, err := ParseTag(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, tag)
		})
	}
}

func TestManifest_TimestampsRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 12, 15, 42, 33, 0, time.UTC)
	m := &Manifest{UUID: "m1", CreatedAt: created}
	assert.True(t, m.CreatedAt.Equal(created))
}
