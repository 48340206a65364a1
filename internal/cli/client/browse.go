package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/pagination"
	"github.com/cloo-solutions/tastyfind/internal/service"
	"github.com/cloo-solutions/tastyfind/internal/web"
)

const browseHelp = "n: next  p: previous  <page>: jump  s <size>: page size  q: quit"

// BrowseCmd creates the interactive browse command.
func BrowseCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Page through all restaurants interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := NewTransportWithCmd(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			coord := service.NewCoordinator(tr)
			return runBrowse(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), coord, pageSizeFor(cmd, limit))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultPageSize, "Results per page")

	return cmd
}

func runBrowse(ctx context.Context, in io.Reader, out io.Writer, coord *service.Coordinator, pageSize int) error {
	_ = coord.Browse(ctx, 1, pageSize)
	printBrowsePage(out, coord.State())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s\n> ", browseHelp)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		cmd := strings.Fields(strings.ToLower(scanner.Text()))
		if len(cmd) == 0 {
			continue
		}

		st := coord.State()
		pager := pagination.Pager{Current: st.Page, PageSize: st.PageSize, Count: st.Results.Len()}

		var err error
		switch cmd[0] {
		case "q", "quit", "exit":
			return nil
		case "n", "next":
			if !pager.HasNext() {
				fmt.Fprintln(out, noDataStyle.Render("No more pages"))
				continue
			}
			err = coord.SetPage(ctx, pager.Next())
		case "p", "prev", "previous":
			if !pager.HasPrev() {
				fmt.Fprintln(out, noDataStyle.Render("Already on the first page"))
				continue
			}
			err = coord.SetPage(ctx, pager.Prev())
		case "s", "size":
			if len(cmd) < 2 {
				fmt.Fprintf(out, "Page size options: %s\n", joinInts(pagination.PageSizes))
				continue
			}
			size, convErr := strconv.Atoi(cmd[1])
			if convErr != nil {
				size = 0
			}
			err = coord.SetPageSize(ctx, size)
		default:
			page, convErr := strconv.Atoi(cmd[0])
			if convErr != nil {
				fmt.Fprintf(out, "Unknown command %q\n", cmd[0])
				continue
			}
			err = coord.SetPage(ctx, page)
		}

		st = coord.State()
		if err != nil && st.Err == "" {
			printError(out, validationMessage(err))
			continue
		}
		printBrowsePage(out, st)
	}
}

func printBrowsePage(out io.Writer, st service.State) {
	if st.Err != "" {
		printError(out, st.Err)
		return
	}

	page := web.NewPage(st, nil, "")
	printResults(out, page.Title, st.Results)
	if page.Pager == nil {
		fmt.Fprintln(out, metaStyle.Render(page.Summary))
		return
	}
	fmt.Fprintf(out, "%s  Showing %d - %d\n", page.Summary, page.Pager.First, page.Pager.Last)
	fmt.Fprintln(out, renderPageItems(page.Pager.Items, page.Pager.Current))
}

func renderPageItems(items []pagination.Item, current int) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		switch {
		case it.Ellipsis:
			parts = append(parts, "…")
		case it.Number == current:
			parts = append(parts, "["+strconv.Itoa(it.Number)+"]")
		default:
			parts = append(parts, strconv.Itoa(it.Number))
		}
	}
	return strings.Join(parts, " ")
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}

func validationMessage(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
