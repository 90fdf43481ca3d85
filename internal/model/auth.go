// internal/model/auth.go
package model

import (
	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest は新規登録APIのリクエストボディの構造体 (DTO)
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// LoginRequest はログインAPIのリクエストボディ
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse はログイン成功時のレスポンス
type LoginResponse struct {
	AccessToken string `json:"access_token"`
}

// JWTCustomClaims はJWTに含めるカスタムクレーム（ペイロード）
// ロールはトークンに焼き込まず、リクエスト毎にプロフィールから引き直します
// (承認でロールが変わった直後のトークンを信用しないため)。
type JWTCustomClaims struct {
	jwt.RegisteredClaims
}
