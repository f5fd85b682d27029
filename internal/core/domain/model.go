package domain

import "time"

type FragmentType string

const (
	FragmentText      FragmentType = "text"
	FragmentEmote     FragmentType = "emote"
	FragmentMention   FragmentType = "mention"
	FragmentCheermote FragmentType = "cheermote"
	FragmentURL       FragmentType = "url"
)

type EmoteProvider string

const (
	ProviderTwitch       EmoteProvider = "twitch"
	ProviderFrankerFaceZ EmoteProvider = "frankerfacez"
	ProviderBTTV         EmoteProvider = "bttv"
	ProviderSevenTV      EmoteProvider = "7tv"
)

// Fragment is one typed segment of a chat message. Only the field matching Type is set.
type Fragment struct {
	Type      FragmentType `json:"type"`
	Text      string       `json:"text"`
	Emote     *Emote       `json:"emote,omitempty"`
	Mention   *Mention     `json:"mention,omitempty"`
	Cheermote *Cheermote   `json:"cheermote,omitempty"`
	Preview   *URLPreview  `json:"preview,omitempty"`

	// Command and Args are filled in by the ingest layer on the first fragment of a command message.
	Command string   `json:"command,omitempty"`
	Args    []string `json:"args,omitempty"`
}

// IsSeparator reports whether the fragment is a single-space text separator.
func (f Fragment) IsSeparator() bool {
	return f.Type == FragmentText && f.Text == " "
}

type Emote struct {
	ID       string            `json:"id"`
	Provider EmoteProvider     `json:"provider"`
	URLs     map[string]string `json:"urls"`

	// twitch only
	EmoteSetID string `json:"emote_set_id,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"`
}

type Mention struct {
	UserID      string `json:"user_id"`
	UserLogin   string `json:"user_login"`
	DisplayName string `json:"display_name"`
}

type Cheermote struct {
	Prefix string `json:"prefix"`
	Bits   int    `json:"bits"`
	Tier   int    `json:"tier"`
}

type URLPreview struct {
	Host        string `json:"host"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type Chatter struct {
	ID          string
	Login       string
	DisplayName string
	Role        Role
}

type ChatMessage struct {
	ID            string
	BroadcasterID string
	Channel       string
	Chatter       Chatter
	Text          string
	Fragments     []Fragment
	IsCommand     bool
	ReplyToID     string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// User is a platform identity as returned by the user directory.
type User struct {
	ID          string
	Login       string
	DisplayName string
}

type RedemptionStatus string

const (
	RedemptionFulfilled RedemptionStatus = "FULFILLED"
	RedemptionCanceled  RedemptionStatus = "CANCELED"
)

type Redemption struct {
	ID               string    `json:"id"`
	BroadcasterID    string    `json:"broadcaster_id"`
	BroadcasterLogin string    `json:"broadcaster_login"`
	UserID           string    `json:"user_id"`
	UserLogin        string    `json:"user_login"`
	UserDisplayName  string    `json:"user_display_name"`
	RewardID         string    `json:"reward_id"`
	RewardTitle      string    `json:"reward_title"`
	RewardCost       int       `json:"reward_cost"`
	UserInput        string    `json:"user_input"`
	Status           string    `json:"status"`
	RedeemedAt       time.Time `json:"redeemed_at"`
}

type Author string

const (
	UserAuthor   Author = "user"
	SystemAuthor Author = "system"
)

type Prompt struct {
	Prompt string
	Author Author
	Model  string
}

type ModelResponse struct {
	Response string
	Metadata ResponseMetadata
}

type ResponseMetadata struct {
	Model            string
	CompletionTokens int
	TotalTokens      int
}
