package main

import (
	"context"

	"github.com/knusbaum/go9p"
	"github.com/knusbaum/go9p/fs"
	"github.com/knusbaum/go9p/proto"
	sheet "github.com/knusbaum/gridcalc"
)

// mount builds the file tree served for srv:
//
//	ctl      write-only command stream
//	updates  read-only stream of evaluated cells
//	sheets/  one read-only JSON snapshot per sheet
func mount(ctx context.Context, srv *server, user string) go9p.Srv {
	sheetFS := fs.NewFS(user, user, 0555)

	outputStream := fs.NewStream(100, false)
	updates := fs.NewStreamFile(sheetFS.NewStat("updates", user, user, 0444), outputStream)
	sheetFS.Root.AddChild(updates)

	inputStream := fs.NewStream(100, false)
	ctl := fs.NewStreamFile(sheetFS.NewStat("ctl", user, user, 0222), inputStream)
	sheetFS.Root.AddChild(ctl)

	sheets := fs.NewStaticDir(sheetFS.NewStat("sheets", user, user, 0555|proto.DMDIR))
	sheetFS.Root.AddChild(sheets)

	srv.publish = func(line string) {
		outputStream.Write([]byte(line))
	}
	srv.created = func(s *sheet.Sheet) {
		id := s.ID
		f := fs.NewDynamicFile(sheetFS.NewStat(id, user, user, 0444), func() []byte {
			data, err := srv.snapshot(id)
			if err != nil {
				srv.log.Printf("snapshot %s: %s", id, err)
				return nil
			}
			return append(data, '\n')
		})
		if err := sheets.AddChild(f); err != nil {
			srv.log.Printf("adding sheets/%s: %s", id, err)
		}
	}

	go func() {
		r := inputStream.AddReader()
		if err := srv.serve(ctx, r); err != nil {
			srv.log.Printf("ctl: %s", err)
		}
	}()

	return sheetFS.Server()
}
