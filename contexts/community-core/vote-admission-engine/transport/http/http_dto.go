package httptransport

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CastVoteRequest struct {
	Direction string `json:"direction"`
}

type CastVoteResponse struct {
	Outcome   string `json:"outcome"`
	CommentID string `json:"comment_id"`
	Score     int    `json:"score"`
	Likes     int    `json:"likes"`
	VoteID    string `json:"vote_id,omitempty"`
	Direction string `json:"direction,omitempty"`
}

// LegacyVoteResponse mirrors the historical vote endpoint, which reports the
// same success body whether or not the vote was admitted.
type LegacyVoteResponse struct {
	Message string `json:"message"`
}

type TallyResponse struct {
	CommentID string `json:"comment_id"`
	Score     int    `json:"score"`
	Likes     int    `json:"likes"`
	UserVote  string `json:"user_vote,omitempty"`
}
