package api

// Message sender values used on the wire.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Chat is one conversation as the backend reports it. Owner is only
// populated on the shared-chats listing.
type Chat struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
}

// Message is a single chat message. Messages synthesized locally before
// server confirmation carry a "local-" id prefix so they can never collide
// with a server-assigned id.
type Message struct {
	ID     string `json:"id"`
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type profileResponse struct {
	User struct {
		Name string `json:"name"`
	} `json:"user"`
}

// UpdateProfileRequest carries the optional profile mutations. Empty fields
// are omitted so the server treats them as "leave unchanged".
type UpdateProfileRequest struct {
	Name        string `json:"name,omitempty"`
	OldPassword string `json:"oldPassword,omitempty"`
	NewPassword string `json:"newPassword,omitempty"`
}

type chatsResponse struct {
	Chats []Chat `json:"chats"`
}

type createChatRequest struct {
	Name           string `json:"name"`
	InitialMessage string `json:"initialMessage"`
}

type createChatResponse struct {
	Chat        Chat     `json:"chat"`
	AIResponses []string `json:"aiResponses"`
}

type messagesResponse struct {
	Messages []Message `json:"messages"`
}

type sendMessageRequest struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	AIResponses []string `json:"aiResponses"`
}

type shareRequest struct {
	Email string `json:"email"`
}

type sharedChatsResponse struct {
	SharedChats []Chat `json:"sharedChats"`
}
