package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"inventory.GO/client"
)

// ErrQuit ends Run.
var ErrQuit = errors.New("console: quit")

const helpText = `global:    go <path> | pages | show | help | quit
dashboard: refresh
inventory: refresh | search <term> | filter <category> | term <text> | qty <id> <n>
           edit <id> field=value ... | delete <id>
add:       set <field> <value> | submit | barcode | qr | save <barcode|qr> <file> | reset
scan:      lookup <code> | scan <file> | reset
upload:    select <file> | decode | qty <n> | clear`

// Run reads commands from in until EOF or quit. Errors of single commands are
// printed and do not stop the loop.
func (s *Shell) Run(in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	s.SetConfirm(func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		if !sc.Scan() {
			return false
		}
		a := strings.ToLower(strings.TrimSpace(sc.Text()))
		return a == "y" || a == "yes"
	})

	if _, p := s.Current(); p == nil {
		if _, err := s.Navigate(PathDashboard); err != nil {
			return err
		}
		s.Render(out)
	}
	for {
		path, _ := s.Current()
		fmt.Fprintf(out, "inventory %s> ", path)
		if !sc.Scan() {
			return sc.Err()
		}
		err := s.Exec(sc.Text(), out)
		if errors.Is(err, ErrQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(out, "error:", err)
		}
		RenderToasts(out, s.freshToasts())
	}
}

// Exec runs one command line against the current page.
func (s *Shell) Exec(line string, out io.Writer) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, rest := args[0], args[1:]
	tail := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))

	switch cmd {
	case "quit", "exit":
		return ErrQuit
	case "help":
		fmt.Fprintln(out, helpText)
		return nil
	case "pages":
		fmt.Fprintln(out, strings.Join(s.Paths(), " "))
		return nil
	case "go":
		if len(rest) != 1 {
			return fmt.Errorf("usage: go <path>")
		}
		if _, err := s.Navigate(rest[0]); err != nil {
			return err
		}
		s.Render(out)
		return nil
	case "show":
		s.Render(out)
		return nil
	}

	_, p := s.Current()
	var err error
	switch pg := p.(type) {
	case *Dashboard:
		err = s.execDashboard(pg, cmd)
	case *InventoryList:
		err = s.execInventory(pg, cmd, rest, tail)
	case *AddItem:
		err = s.execAddItem(pg, cmd, rest, tail)
	case *Scanner:
		err = s.execScanner(pg, cmd, rest, tail, out)
	case *ImageUpload:
		err = s.execUpload(pg, cmd, rest, tail)
	default:
		return fmt.Errorf("no page mounted")
	}
	if err != nil {
		return err
	}
	s.Render(out)
	return nil
}

func unknown(cmd string) error {
	return fmt.Errorf("unknown command %q, try help", cmd)
}

func (s *Shell) execDashboard(d *Dashboard, cmd string) error {
	if cmd != "refresh" {
		return unknown(cmd)
	}
	return quiet(d.Load())
}

func (s *Shell) execInventory(l *InventoryList, cmd string, rest []string, tail string) error {
	switch cmd {
	case "refresh":
		return quiet(l.Refresh())
	case "search":
		return quiet(l.Search(tail))
	case "filter":
		return quiet(l.Filter(tail))
	case "term":
		l.SetTerm(tail)
		return nil
	case "qty":
		if len(rest) != 2 {
			return fmt.Errorf("usage: qty <id> <n>")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(rest[1])
		if err != nil {
			return err
		}
		return quiet(l.UpdateQuantity(id, n))
	case "edit":
		if len(rest) < 2 {
			return fmt.Errorf("usage: edit <id> field=value ...")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return err
		}
		it, ok := l.find(id)
		if !ok {
			return fmt.Errorf("item %d is not in the list", id)
		}
		f, err := applyEdits(it.Fields(), rest[1:])
		if err != nil {
			return err
		}
		return quiet(l.Update(id, f))
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("usage: delete <id>")
		}
		id, err := strconv.ParseInt(rest[0], 10, 64)
		if err != nil {
			return err
		}
		s.mu.Lock()
		ask := s.confirm
		s.mu.Unlock()
		return quiet(l.Delete(id, func(it client.Item) bool {
			name := it.Name
			if name == "" {
				name = fmt.Sprintf("item %d", it.ID)
			}
			return ask(fmt.Sprintf("Delete %s?", name))
		}))
	}
	return unknown(cmd)
}

// applyEdits sets field=value pairs on f. Words without '=' continue the
// previous value, so "name=Desk Lamp" works.
func applyEdits(f client.ItemFields, words []string) (client.ItemFields, error) {
	var pairs [][2]string
	for _, w := range words {
		if k, v, ok := strings.Cut(w, "="); ok {
			pairs = append(pairs, [2]string{k, v})
			continue
		}
		if len(pairs) == 0 {
			return f, fmt.Errorf("expected field=value, got %q", w)
		}
		pairs[len(pairs)-1][1] += " " + w
	}
	for _, kv := range pairs {
		v := kv[1]
		switch kv[0] {
		case "name":
			f.Name = v
		case "category":
			f.Category = v
		case "quantity":
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, fmt.Errorf("quantity: %w", err)
			}
			f.Quantity = n
		case "lowStockThreshold":
			n, err := strconv.Atoi(v)
			if err != nil {
				return f, fmt.Errorf("lowStockThreshold: %w", err)
			}
			f.LowStockThreshold = &n
		case "barcode":
			f.Barcode = &v
		case "qrCode":
			f.QRCode = &v
		case "image":
			f.Image = &v
		default:
			return f, fmt.Errorf("unknown field %q", kv[0])
		}
	}
	return f, nil
}

func (s *Shell) execAddItem(a *AddItem, cmd string, rest []string, tail string) error {
	switch cmd {
	case "set":
		if len(rest) < 1 {
			return fmt.Errorf("usage: set <field> <value>")
		}
		return a.Set(rest[0], strings.TrimSpace(strings.TrimPrefix(tail, rest[0])))
	case "submit":
		_, err := a.Submit()
		return quiet(err)
	case "barcode":
		_, err := a.GenerateBarcodePreview()
		return quiet(err)
	case "qr":
		_, err := a.GenerateQRPreview()
		return quiet(err)
	case "save":
		if len(rest) != 2 {
			return fmt.Errorf("usage: save <barcode|qr> <file>")
		}
		return quiet(a.SavePreview(PreviewKind(rest[0]), rest[1]))
	case "reset":
		a.Reset()
		return nil
	}
	return unknown(cmd)
}

func (s *Shell) execScanner(sc *Scanner, cmd string, rest []string, tail string, out io.Writer) error {
	switch cmd {
	case "lookup":
		_, err := sc.Lookup(tail)
		return quiet(err)
	case "scan":
		if len(rest) != 1 {
			return fmt.Errorf("usage: scan <file>")
		}
		img, err := os.ReadFile(rest[0])
		if err != nil {
			return err
		}
		_, fresh, err := sc.Scan(img)
		if err == nil && !fresh {
			fmt.Fprintln(out, "no new code")
		}
		return quiet(err)
	case "reset":
		sc.Reset()
		return nil
	}
	return unknown(cmd)
}

func (s *Shell) execUpload(u *ImageUpload, cmd string, rest []string, tail string) error {
	switch cmd {
	case "select":
		return quiet(u.SelectFile(tail))
	case "decode":
		_, err := u.Decode()
		return quiet(err)
	case "qty":
		if len(rest) != 1 {
			return fmt.Errorf("usage: qty <n>")
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return err
		}
		return quiet(u.UpdateQuantity(n))
	case "clear":
		u.Clear()
		return nil
	}
	return unknown(cmd)
}

// quiet hides errors the page already reported as a toast or a field error.
func quiet(err error) error {
	var ve *client.ValidationError
	var se *client.ServiceError
	var ne *client.NetworkError
	if errors.As(err, &ve) || errors.As(err, &se) || errors.As(err, &ne) {
		return nil
	}
	return err
}

// Render prints the current page.
func (s *Shell) Render(out io.Writer) {
	path, p := s.Current()
	fmt.Fprintf(out, "== %s [%s]\n", path, statusOf(p))
	switch pg := p.(type) {
	case *Dashboard:
		if pg.Status() == Loaded {
			RenderDashboard(out, pg.View())
		}
	case *InventoryList:
		if cats := pg.Categories(); len(cats) > 0 {
			fmt.Fprintf(out, "categories: %s\n", strings.Join(cats, ", "))
		}
		RenderItems(out, pg.Visible())
	case *AddItem:
		RenderForm(out, pg.Form(), pg.FieldError)
		if it, qr := pg.Created(); it != nil {
			fmt.Fprintf(out, "last created: #%d %s (qr image %d bytes)\n", it.ID, it.Name, len(qr))
		}
	case *Scanner:
		if it := pg.Item(); it != nil {
			RenderItem(out, *it)
		} else if msg := pg.FieldError("barcode"); msg != "" {
			fmt.Fprintln(out, "barcode", msg)
		}
	case *ImageUpload:
		if name, n := pg.Selected(); name != "" {
			fmt.Fprintf(out, "selected: %s (%d bytes)\n", name, n)
		}
		if msg := pg.FieldError("image"); msg != "" {
			fmt.Fprintln(out, "image:", msg)
		}
		if r := pg.Result(); r != nil {
			switch {
			case r.MatchedItem != nil:
				RenderItem(out, *r.MatchedItem)
			case !r.Empty():
				fmt.Fprintln(out, "decoded:", *r.DecodedText)
			default:
				fmt.Fprintln(out, "no barcode")
			}
		}
	}
	if p != nil {
		if err := p.Err(); err != nil && p.Status() == Failed {
			fmt.Fprintln(out, "last error:", err)
		}
	}
}

func statusOf(p Page) Status {
	if p == nil {
		return Idle
	}
	return p.Status()
}
