package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/holmosapien/slattice/internal/directory"
)

const defaultTimeout = 30 * time.Second

// Client implements directory.Client against the workspace web API. One
// client per workspace; the token scopes every call.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

// New builds a client for one workspace token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
}

// GatewayInfo is the result of a gateway connect call: where to dial the
// event stream and which workspace the token belongs to.
type GatewayInfo struct {
	URL      string
	TeamID   string
	TeamName string
}

// ConnectGateway asks the web API for an event-stream endpoint.
func (c *Client) ConnectGateway(ctx context.Context) (GatewayInfo, error) {
	var resp struct {
		apiResponse
		URL  string `json:"url"`
		Team struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"team"`
	}
	if err := c.call(ctx, "rtm.connect", nil, &resp); err != nil {
		return GatewayInfo{}, err
	}
	return GatewayInfo{URL: resp.URL, TeamID: resp.Team.ID, TeamName: resp.Team.Name}, nil
}

type apiIdentity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RealName string `json:"real_name"`
	Deleted  bool   `json:"deleted"`
}

func (u apiIdentity) toDirectory() directory.Identity {
	return directory.Identity{ID: u.ID, Name: u.Name, RealName: u.RealName, Deleted: u.Deleted}
}

// ListIdentities fetches one page of the member listing.
func (c *Client) ListIdentities(ctx context.Context, cursor string) (directory.IdentityPage, error) {
	params := url.Values{}
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp struct {
		apiResponse
		Members          []apiIdentity `json:"members"`
		ResponseMetadata struct {
			NextCursor string `json:"next_cursor"`
		} `json:"response_metadata"`
	}
	if err := c.call(ctx, "users.list", params, &resp); err != nil {
		return directory.IdentityPage{}, err
	}

	page := directory.IdentityPage{NextCursor: resp.ResponseMetadata.NextCursor}
	for _, member := range resp.Members {
		page.Identities = append(page.Identities, member.toDirectory())
	}
	return page, nil
}

type apiConversation struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	IsChannel     bool     `json:"is_channel"`
	IsGroup       bool     `json:"is_group"`
	IsIM          bool     `json:"is_im"`
	IsMPIM        bool     `json:"is_mpim"`
	IsMember      bool     `json:"is_member"`
	IsOpen        *bool    `json:"is_open"`
	IsUserDeleted bool     `json:"is_user_deleted"`
	LastRead      string   `json:"last_read"`
	User          string   `json:"user"`
	Members       []string `json:"members"`
}

// ListConversations fetches one page of the conversation listing across all
// kinds.
func (c *Client) ListConversations(ctx context.Context, cursor string) (directory.ConversationPage, error) {
	params := url.Values{}
	params.Set("types", "public_channel,private_channel,mpim,im")
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	var resp struct {
		apiResponse
		Channels         []apiConversation `json:"channels"`
		ResponseMetadata struct {
			NextCursor string `json:"next_cursor"`
		} `json:"response_metadata"`
	}
	if err := c.call(ctx, "conversations.list", params, &resp); err != nil {
		return directory.ConversationPage{}, err
	}

	page := directory.ConversationPage{NextCursor: resp.ResponseMetadata.NextCursor}
	for _, ch := range resp.Channels {
		page.Conversations = append(page.Conversations, directory.ConversationEntry{
			ID:            ch.ID,
			Name:          ch.Name,
			IsChannel:     ch.IsChannel,
			IsGroup:       ch.IsGroup,
			IsIM:          ch.IsIM,
			IsMPIM:        ch.IsMPIM,
			IsMember:      ch.IsMember,
			IsOpen:        ch.IsOpen,
			IsUserDeleted: ch.IsUserDeleted,
			LastRead:      ch.LastRead,
			UserID:        ch.User,
			Members:       ch.Members,
		})
	}
	return page, nil
}

// Identity fetches one member by id.
func (c *Client) Identity(ctx context.Context, id string) (directory.Identity, error) {
	params := url.Values{}
	params.Set("user", id)

	var resp struct {
		apiResponse
		User apiIdentity `json:"user"`
	}
	if err := c.call(ctx, "users.info", params, &resp); err != nil {
		return directory.Identity{}, err
	}
	return resp.User.toDirectory(), nil
}

// ConversationInfo fetches one conversation's detail.
func (c *Client) ConversationInfo(ctx context.Context, id string) (directory.ConversationDetail, error) {
	params := url.Values{}
	params.Set("channel", id)

	var resp struct {
		apiResponse
		Channel struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			IsIM   bool   `json:"is_im"`
			IsMPIM bool   `json:"is_mpim"`
			User   string `json:"user"`
		} `json:"channel"`
	}
	if err := c.call(ctx, "conversations.info", params, &resp); err != nil {
		return directory.ConversationDetail{}, err
	}
	return directory.ConversationDetail{
		ID:     resp.Channel.ID,
		Name:   resp.Channel.Name,
		IsIM:   resp.Channel.IsIM,
		IsMPIM: resp.Channel.IsMPIM,
		UserID: resp.Channel.User,
	}, nil
}

// ConversationMembers fetches the member ids of one conversation.
func (c *Client) ConversationMembers(ctx context.Context, id string) ([]string, error) {
	params := url.Values{}
	params.Set("channel", id)

	var resp struct {
		apiResponse
		Members []string `json:"members"`
	}
	if err := c.call(ctx, "conversations.members", params, &resp); err != nil {
		return nil, err
	}
	return resp.Members, nil
}

// ConversationHistory fetches messages newer than oldest.
func (c *Client) ConversationHistory(ctx context.Context, id, oldest string, inclusive bool) ([]directory.HistoryMessage, error) {
	params := url.Values{}
	params.Set("channel", id)
	if oldest != "" {
		params.Set("oldest", oldest)
	}
	if inclusive {
		params.Set("inclusive", "true")
	}

	var resp struct {
		apiResponse
		Messages []struct {
			TS string `json:"ts"`
		} `json:"messages"`
	}
	if err := c.call(ctx, "conversations.history", params, &resp); err != nil {
		return nil, err
	}

	messages := make([]directory.HistoryMessage, 0, len(resp.Messages))
	for _, msg := range resp.Messages {
		messages = append(messages, directory.HistoryMessage{TS: msg.TS})
	}
	return messages, nil
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (r apiResponse) err(method string) error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return fmt.Errorf("%s: request failed", method)
	}
	return fmt.Errorf("%s: %s", method, r.Error)
}

// call performs one web API request. The target must embed apiResponse.
func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{ err(string) error }) error {
	if params == nil {
		params = url.Values{}
	}

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, method, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}

	return out.err(method)
}
