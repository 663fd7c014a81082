package blog

import (
	"time"
)

// Role decides what a user may do with spots.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User is a registered site member.
type User struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"size:250;uniqueIndex;not null" json:"name"`
	Password  string     `gorm:"size:100;not null" json:"-"`
	Role      Role       `gorm:"size:16;not null;default:member" json:"role"`
	Posts     []BlogPost `gorm:"foreignKey:AuthorID" json:"-"`
	Comments  []Comment  `gorm:"foreignKey:AuthorID" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
}

func (User) TableName() string { return "users" }

// BlogPost is a surf spot entry.
type BlogPost struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID" json:"author"`
	NameBeach   string    `gorm:"size:250;not null" json:"name_beach"`
	City        string    `gorm:"size:250;not null" json:"city"`
	Country     string    `gorm:"size:250;not null;index" json:"country"`
	Continent   string    `gorm:"size:250;not null" json:"continent"`
	MapsURL     string    `gorm:"size:250;not null" json:"maps_url"`
	Access      string    `gorm:"size:250;not null" json:"access"`
	Clima       string    `gorm:"size:250;not null" json:"clima"`
	WaveQuality string    `gorm:"type:text;not null" json:"wave_quality"`
	Infos       string    `gorm:"type:text;not null" json:"infos"`
	ImgURL      string    `gorm:"size:250;not null" json:"img_url"`
	Date        string    `gorm:"size:250;not null" json:"date"` // YYYY-MM-DD
	Comments    []Comment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

func (BlogPost) TableName() string { return "blog_posts" }

// Comment is a member's note on a spot.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (Comment) TableName() string { return "comments" }

// Models lists every persisted type, in migration order.
func Models() []interface{} {
	return []interface{}{&User{}, &BlogPost{}, &Comment{}}
}
