package models

// Keyboard is a transport-neutral reply keyboard.
type Keyboard struct {
	Rows       [][]string
	Resize     bool
	OneTime    bool
	Persistent bool
}

// ButtonGrid lays buttons out in rows of the given width. The keyboard is
// resized to fit and hidden after one use.
func ButtonGrid(buttons []string, columns int) *Keyboard {
	if columns <= 0 {
		columns = 3
	}

	rows := make([][]string, 0, (len(buttons)+columns-1)/columns)
	for start := 0; start < len(buttons); start += columns {
		end := min(start+columns, len(buttons))
		row := make([]string, end-start)
		copy(row, buttons[start:end])
		rows = append(rows, row)
	}

	return &Keyboard{Rows: rows, Resize: true, OneTime: true}
}
