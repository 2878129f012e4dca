package comment

import (
	"errors"
	"net/url"
	"time"
)

var ErrNotFound = errors.New("comment not found")

type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	PostID    string    `json:"post_id"`
	UserID    *string   `json:"user_id"` // nullable at the data layer; always set on create
	CreatedAt time.Time `json:"created_at"`
}

// WithAuthor is the listing shape: the author's display name and a derived
// avatar URL are denormalized onto each comment for the front-end.
type WithAuthor struct {
	Comment
	AuthorName   *string `json:"author_name"`
	AuthorAvatar *string `json:"author_avatar"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
	PostID  string `json:"post_id" binding:"required,uuid"`
}

type UpdateCommentRequest struct {
	Content *string `json:"content"`
}

// AvatarURL derives a ui-avatars.com image from the author name. Returns
// nil when there is no name to render.
func AvatarURL(name *string) *string {
	if name == nil || *name == "" {
		return nil
	}

	u := "https://ui-avatars.com/api/?name=" + url.QueryEscape(*name) + "&background=ddd&color=555&rounded=true"

	return &u
}

func Denormalize(c Comment, authorName *string) WithAuthor {
	return WithAuthor{
		Comment:      c,
		AuthorName:   authorName,
		AuthorAvatar: AvatarURL(authorName),
	}
}
