package keymap

// Command names used by the default global keymap.
const (
	CmdSaveBuffer       = "save-buffer"
	CmdFindFile         = "find-file"
	CmdQuit             = "save-buffers-kill"
	CmdExecuteExtended  = "execute-extended-command"
	CmdQuotedInsert     = "quoted-insert"
	CmdDescribeKey      = "describe-key"
	CmdDescribeBindings = "describe-bindings"
	CmdKeyboardQuit     = "keyboard-escape-quit"
)

// DefaultGlobal returns the built-in global bindings.
func DefaultGlobal() *File {
	return &File{
		Name: "global",
		Bindings: []BindingDef{
			// Files
			{Keys: "C-X C-S", Action: CmdSaveBuffer, Description: "Save the current buffer", Category: "Files"},
			{Keys: "C-X C-F", Action: CmdFindFile, Description: "Visit a file", Category: "Files"},
			{Keys: "C-X C-C", Action: CmdQuit, Description: "Exit", Category: "Files"},

			// Commands
			{Keys: "M-X", Action: CmdExecuteExtended, Description: "Run a command by name", Category: "Commands"},
			{Keys: "M-ESC ESC", Action: CmdKeyboardQuit, Description: "Quit the current sequence", Category: "Commands"},

			// Input
			{Keys: "C-Q", Action: CmdQuotedInsert, Description: "Insert the next key literally", Category: "Input"},

			// Help
			{Keys: "C-H K", Action: CmdDescribeKey, Description: "Describe the next key sequence", Category: "Help"},
			{Keys: "F1 K", Action: CmdDescribeKey, Description: "Describe the next key sequence", Category: "Help"},
			{Keys: "C-H B", Action: CmdDescribeBindings, Description: "List every binding by category", Category: "Help"},
			{Keys: "F1 B", Action: CmdDescribeBindings, Description: "List every binding by category", Category: "Help"},
		},
	}
}
