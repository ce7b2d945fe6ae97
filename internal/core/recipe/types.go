package recipe

import (
	"encoding/json"
	"slices"
	"time"
)

// AnonymousUserID 代表沒有登入使用者的保留 user_id
const AnonymousUserID = "__anonymous__"

// 對話角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultSpiceTolerance 使用者未設定時的辣度
const DefaultSpiceTolerance = 2

// Servings 份量
type Servings struct {
	Amount *float64 `json:"amount"`
	Unit   *string  `json:"unit"`
}

// Times 準備與烹調時間（分鐘）
type Times struct {
	PrepMinutes  *int `json:"prep_minutes"`
	CookMinutes  *int `json:"cook_minutes"`
	TotalMinutes *int `json:"total_minutes"`
}

// Ingredient 食材
type Ingredient struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount"`
	Unit   *string  `json:"unit"`
	Notes  *string  `json:"notes"`
}

// Step 食譜步驟，Order 從 1 開始，用來對應烹飪進度
type Step struct {
	Order           int    `json:"order"`
	Instruction     string `json:"instruction"`
	DurationMinutes *int   `json:"duration_minutes"`
	RequireTimer    bool   `json:"require_timer"`
}

// Modification 為了配合使用者偏好而做的調整
type Modification struct {
	What string `json:"what"`
	Why  string `json:"why"`
}

// Recipe 從影片萃取出的食譜文件
type Recipe struct {
	Title         string         `json:"title"`
	Description   *string        `json:"description"`
	Servings      *Servings      `json:"servings"`
	Times         *Times         `json:"times"`
	Ingredients   []Ingredient   `json:"ingredients"`
	Steps         []Step         `json:"steps"`
	Tags          []string       `json:"tags"`
	Equipment     []string       `json:"equipment"`
	Notes         *string        `json:"notes"`
	Modifications []Modification `json:"modifications"`
}

// Record 已快取的處理結果，(URL, UserID) 唯一
type Record struct {
	ID         int64     `json:"id"`
	URL        string    `json:"url"`
	UserID     string    `json:"user_id"`
	Transcript string    `json:"transcript"`
	Caption    *string   `json:"caption"`
	Recipe     Recipe    `json:"recipe"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary 列表用的食譜摘要
type Summary struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	Recipe    Recipe    `json:"recipe"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage 對話紀錄中的一則訊息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Settings 使用者偏好
type Settings struct {
	UserID              string    `json:"user_id"`
	DietaryRestrictions *string   `json:"dietary_restrictions"`
	SpiceTolerance      int       `json:"spice_tolerance"`
	CustomRules         *string   `json:"custom_rules"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// SettingsUpdate 部分更新，未設定的欄位保留原值
type SettingsUpdate struct {
	DietaryRestrictions Optional[string] `json:"dietary_restrictions"`
	SpiceTolerance      Optional[int]    `json:"spice_tolerance"`
	CustomRules         Optional[string] `json:"custom_rules"`
}

// Optional 區分「未提供」、「null」與「有值」三種狀態
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some 建立有值的 Optional
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null 建立明確為 null 的 Optional
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON 只要欄位出現在 JSON 中就視為已設定
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// MarshalJSON 未設定或 null 都輸出 null
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// EffectiveUserID 空的 user_id 對應到匿名範圍
func EffectiveUserID(userID string) string {
	if userID == "" {
		return AnonymousUserID
	}
	return userID
}

// Clone 深層複製，包含所有切片與指標欄位
func (r Recipe) Clone() Recipe {
	c := r
	c.Description = clonePtr(r.Description)
	c.Notes = clonePtr(r.Notes)
	if r.Servings != nil {
		s := Servings{Amount: clonePtr(r.Servings.Amount), Unit: clonePtr(r.Servings.Unit)}
		c.Servings = &s
	}
	if r.Times != nil {
		t := Times{
			PrepMinutes:  clonePtr(r.Times.PrepMinutes),
			CookMinutes:  clonePtr(r.Times.CookMinutes),
			TotalMinutes: clonePtr(r.Times.TotalMinutes),
		}
		c.Times = &t
	}
	if r.Ingredients != nil {
		c.Ingredients = make([]Ingredient, len(r.Ingredients))
		for i, ing := range r.Ingredients {
			ing.Amount = clonePtr(ing.Amount)
			ing.Unit = clonePtr(ing.Unit)
			ing.Notes = clonePtr(ing.Notes)
			c.Ingredients[i] = ing
		}
	}
	if r.Steps != nil {
		c.Steps = make([]Step, len(r.Steps))
		for i, step := range r.Steps {
			step.DurationMinutes = clonePtr(step.DurationMinutes)
			c.Steps[i] = step
		}
	}
	c.Tags = slices.Clone(r.Tags)
	c.Equipment = slices.Clone(r.Equipment)
	c.Modifications = slices.Clone(r.Modifications)
	return c
}

// Clone 深層複製快取紀錄
func (r Record) Clone() Record {
	c := r
	c.Caption = clonePtr(r.Caption)
	c.Recipe = r.Recipe.Clone()
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
