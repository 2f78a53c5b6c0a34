// Package domain defines the persistence models for triggers, users, and
// orders. These types are mapped with GORM and are also the in-memory shapes
// held by the environment cache, so a few fields are transient (gorm:"-")
// and never reach the store.
package domain

// ContentKind tags the payload carried by a trigger or a chat message.
type ContentKind string

const (
	KindText    ContentKind = "text"
	KindPhoto   ContentKind = "photo"
	KindSticker ContentKind = "sticker"
)

// Valid reports whether k is one of the kinds a trigger can replay.
func (k ContentKind) Valid() bool {
	switch k {
	case KindText, KindPhoto, KindSticker:
		return true
	}
	return false
}

// Content is a (kind, payload) pair. For text the payload is the message
// text; for photos and stickers it is the platform file reference.
type Content struct {
	Kind    ContentKind
	Payload string
}

// Trigger is a named auto-response bound to a chat.
//
// Fields:
//   - ChatID / Name: composite primary key; (chat, name) is unique.
//   - Kind: content kind, stored in the "type" column.
//   - Payload: text or media reference, stored in the "msg" column.
//   - Erased: soft-delete marker; the row is removed on the next flush.
type Trigger struct {
	ChatID  int64       `gorm:"column:chat_id;primaryKey;autoIncrement:false"`
	Name    string      `gorm:"column:name;primaryKey;type:text"`
	Kind    ContentKind `gorm:"column:type;type:text"`
	Payload string      `gorm:"column:msg;type:text"`

	Erased bool `gorm:"-"`
}

// TableName returns the database table name for Trigger.
func (Trigger) TableName() string { return "triggers" }

// Content returns the replayable content of the trigger.
func (t Trigger) Content() Content { return Content{Kind: t.Kind, Payload: t.Payload} }

// ChatTriggers maps chat id to that chat's triggers keyed by name.
type ChatTriggers map[int64]map[string]*Trigger

// User is a bot user with an access level and the orders it owns.
//
// Orders are loaded and saved explicitly by the repository, so GORM must not
// treat them as an association.
type User struct {
	ID       int64  `gorm:"column:id;primaryKey;autoIncrement:false"`
	Nickname string `gorm:"column:nickname;type:text"`
	Status   Status `gorm:"column:status"`

	Orders []Order `gorm:"-"`
	IsNew  bool    `gorm:"-"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Clone returns a deep copy of u, orders included.
func (u *User) Clone() *User {
	c := *u
	if u.Orders != nil {
		c.Orders = make([]Order, len(u.Orders))
		copy(c.Orders, u.Orders)
	}
	return &c
}

// Order is a resource order owned by a user. ID is assigned by the store on
// first insert; IsNew marks orders that have not been inserted yet.
type Order struct {
	ID           int64 `gorm:"column:id;primaryKey"`
	UserID       int64 `gorm:"column:user_id;index"`
	ResCode      int64 `gorm:"column:res_code"`
	BoughtAmount int64 `gorm:"column:bought_amount"`
	WantedAmount int64 `gorm:"column:wanted_amount"`
	Price        int64 `gorm:"column:price"`

	IsNew bool `gorm:"-"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// Pending reports whether the order still needs its first insert.
func (o Order) Pending() bool { return o.IsNew || o.ID == 0 }
