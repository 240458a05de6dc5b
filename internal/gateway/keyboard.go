package gateway

// Button is a single keyboard button. The gateway renders it; at most one
// of Data, URL, RequestContact applies.
type Button struct {
	Label          string `json:"label"`
	Data           string `json:"data,omitempty"`
	URL            string `json:"url,omitempty"`
	RequestContact bool   `json:"request_contact,omitempty"`
}

// Keyboard describes either an inline keyboard (buttons attached to a
// message, pressed as callbacks) or a reply keyboard (buttons that send
// their label as a regular message).
type Keyboard struct {
	Inline  bool       `json:"inline,omitempty"`
	OneTime bool       `json:"one_time,omitempty"`
	Rows    [][]Button `json:"rows"`
}

// NewReplyKeyboard builds a one-time reply keyboard, one row per call arg.
func NewReplyKeyboard(rows ...[]string) *Keyboard {
	kb := &Keyboard{OneTime: true}
	for _, labels := range rows {
		row := make([]Button, 0, len(labels))
		for _, label := range labels {
			row = append(row, Button{Label: label})
		}
		kb.Rows = append(kb.Rows, row)
	}
	return kb
}

// NewInlineKeyboard builds an inline keyboard from prepared button rows.
func NewInlineKeyboard(rows ...[]Button) *Keyboard {
	return &Keyboard{Inline: true, Rows: rows}
}
