package model

// NumberFactMessage is the fixed greeting returned alongside a number fact.
const NumberFactMessage = "Great! You have found the hidden number fact "

// NumberFactResponse is the body of the easter-egg endpoint.
type NumberFactResponse struct {
	Message  string `json:"message"`
	Response string `json:"response"`
}
