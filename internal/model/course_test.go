package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "正常系: 空白はハイフンに変換される",
			title: "Go Basics",
			want:  "go-basics",
		},
		{
			name:  "正常系: 大文字は小文字になる",
			title: "Advanced SQL",
			want:  "advanced-sql",
		},
		{
			name:  "正常系: 記号の連続は1つのハイフンにまとまる",
			title: "REST / gRPC 入門!!",
			want:  "rest-grpc",
		},
		{
			name:  "正常系: 前後の空白と記号は除去される",
			title: "  --Hello World--  ",
			want:  "hello-world",
		},
		{
			name:  "正常系: 英数字以外のみの場合は空文字になる",
			title: "???",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.title))
		})
	}
}

func TestNewCourseResponse_RatingRounding(t *testing.T) {
	tests := []struct {
		name   string
		stored float64
		want   float64
	}{
		{
			name:   "正常系: (5+3+4)/3 は 4.0 に丸められる",
			stored: 4.0,
			want:   4.0,
		},
		{
			name:   "正常系: 4.333... は 4.3 に丸められる",
			stored: 13.0 / 3.0,
			want:   4.3,
		},
		{
			name:   "正常系: 4.25 は 4.3 に丸められる (四捨五入)",
			stored: 4.25,
			want:   4.3,
		},
		{
			name:   "正常系: レビューなしは 0 のまま",
			stored: 0,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Course{
				CourseID:      uuid.New(),
				Slug:          "go-basics",
				Title:         "Go Basics",
				AverageRating: tt.stored,
			}
			resp := NewCourseResponse(c, 3)
			assert.Equal(t, tt.want, resp.AverageRating)
			assert.Equal(t, 3, resp.LessonCount)
		})
	}
}
