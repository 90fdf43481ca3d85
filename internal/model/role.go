// internal/model/role.go
package model

// Role はプロフィールに保存されるアプリケーション上の役割です
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// rolePermissions は役割ごとの包含関係を表すテーブルです。
// 文字列比較の散在を避け、判定をこの一箇所に集約します。
// admin は上位ロールとして instructor / student の要求をすべて満たします。
var rolePermissions = map[Role]map[Role]bool{
	RoleStudent: {
		RoleStudent: true,
	},
	RoleInstructor: {
		RoleInstructor: true,
	},
	RoleAdmin: {
		RoleStudent:    true,
		RoleInstructor: true,
		RoleAdmin:      true,
	},
}

// Valid は既知のロールかどうかを返します
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// RoleAllowed は actor が allowed のいずれかの要求を満たすかを判定する純粋関数です。
// 副作用はありません。未知のロールは常に deny です。
func RoleAllowed(actor Role, allowed ...Role) bool {
	grants, ok := rolePermissions[actor]
	if !ok {
		return false
	}
	for _, want := range allowed {
		if grants[want] {
			return true
		}
	}
	return false
}
