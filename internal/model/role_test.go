package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Valid(t *testing.T) {
	assert.True(t, RoleStudent.Valid())
	assert.True(t, RoleInstructor.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestRoleAllowed(t *testing.T) {
	tests := []struct {
		name    string
		actor   Role
		allowed []Role
		want    bool
	}{
		{
			name:    "正常系: 受講者は受講者向け操作を実行できる",
			actor:   RoleStudent,
			allowed: []Role{RoleStudent},
			want:    true,
		},
		{
			name:    "異常系: 受講者は講師向け操作を実行できない",
			actor:   RoleStudent,
			allowed: []Role{RoleInstructor},
			want:    false,
		},
		{
			name:    "正常系: 講師は講師向け操作を実行できる",
			actor:   RoleInstructor,
			allowed: []Role{RoleInstructor},
			want:    true,
		},
		{
			name:    "異常系: 講師は管理者向け操作を実行できない",
			actor:   RoleInstructor,
			allowed: []Role{RoleAdmin},
			want:    false,
		},
		{
			name:    "正常系: 管理者は講師向け操作も実行できる (上位集合)",
			actor:   RoleAdmin,
			allowed: []Role{RoleInstructor},
			want:    true,
		},
		{
			name:    "正常系: 管理者は受講者向け操作も実行できる",
			actor:   RoleAdmin,
			allowed: []Role{RoleStudent},
			want:    true,
		},
		{
			name:    "正常系: 許可リストが複数あればいずれかに合致すればよい",
			actor:   RoleInstructor,
			allowed: []Role{RoleStudent, RoleInstructor},
			want:    true,
		},
		{
			name:    "異常系: 未知のロールは常に拒否",
			actor:   Role("superuser"),
			allowed: []Role{RoleStudent, RoleInstructor, RoleAdmin},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RoleAllowed(tt.actor, tt.allowed...))
		})
	}
}
