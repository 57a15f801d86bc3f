// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/Kimyongari/Finsight/internal/config"
)

// HandleFiles manages the vector collection from the command line.
//
//	finsight files            list registered documents
//	finsight files list       same
//	finsight files rm NAME    delete a document and its chunks
func HandleFiles(args Args) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client := newClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch args.Subcommand {
	case "", "list":
		files, err := client.ShowFilesInCollection(ctx)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("no documents in the collection")
			return nil
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return nil

	case "rm":
		if len(args.Raw) == 0 {
			return fmt.Errorf("usage: finsight files rm FILE_NAME")
		}
		name := args.Raw[0]
		if err := client.DeleteFile(ctx, name); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", name)
		return nil

	default:
		return fmt.Errorf("unknown files subcommand %q (list, rm)", args.Subcommand)
	}
}
