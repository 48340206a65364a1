package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/tastyfind/internal/domain"
	"github.com/cloo-solutions/tastyfind/internal/service"
	"github.com/cloo-solutions/tastyfind/internal/web"
)

type searchFunc func(ctx context.Context, c *service.Coordinator) error

// runSearch executes one search against the configured backend and prints the outcome.
func runSearch(cmd *cobra.Command, fn searchFunc) error {
	tr, err := NewTransportWithCmd(cmd)
	if err != nil {
		return err
	}
	outputJSON, _ := cmd.Flags().GetBool("output")
	return execSearch(cmd.Context(), cmd.OutOrStdout(), service.NewCoordinator(tr), outputJSON, fn)
}

func execSearch(ctx context.Context, w io.Writer, coord *service.Coordinator, outputJSON bool, fn searchFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := fn(ctx, coord); err != nil && domain.IsValidation(err) {
		return err
	}

	st := coord.State()
	if st.Err != "" {
		return errors.New(st.Err)
	}
	if outputJSON {
		return printJSON(w, resultsJSON(st.Results))
	}

	page := web.NewPage(st, nil, "")
	printResults(w, page.Title, st.Results)
	fmt.Fprintln(w, metaStyle.Render(page.Summary))
	return nil
}

func resultsJSON(rs domain.ResultSet) interface{} {
	if rs.IsRanked() {
		return rs.Ranked()
	}
	return rs.Plain()
}

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	var (
		country, city, cuisine string
		minCost, maxCost       float64
		page, limit            int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List restaurants page by page",
		Long:  "Lists restaurants with optional country, city, cuisine and cost filters.",
		RunE: func(cmd *cobra.Command, args []string) error {
			l := domain.Listing{
				Country: country,
				City:    city,
				Cuisine: cuisine,
				Page:    page,
				Limit:   pageSizeFor(cmd, limit),
			}
			if cmd.Flags().Changed("min-cost") {
				l.MinCost = domain.Float(minCost)
			}
			if cmd.Flags().Changed("max-cost") {
				l.MaxCost = domain.Float(maxCost)
			}
			return runSearch(cmd, func(ctx context.Context, c *service.Coordinator) error {
				if l.IsBrowseAll() {
					return c.Browse(ctx, l.Page, l.Limit)
				}
				return c.SearchListing(ctx, l)
			})
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "Filter by country")
	cmd.Flags().StringVar(&city, "city", "", "Filter by city")
	cmd.Flags().StringVar(&cuisine, "cuisine", "", "Filter by cuisine")
	cmd.Flags().Float64Var(&minCost, "min-cost", 0, "Minimum average cost for two")
	cmd.Flags().Float64Var(&maxCost, "max-cost", 0, "Maximum average cost for two")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page number")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultPageSize, "Results per page")

	return cmd
}

// QueryCmd creates the query command.
func QueryCmd() *cobra.Command {
	var (
		name, city, cuisine, country string
		limit                        int
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search restaurants by name, city, cuisine or country",
		Long:  "Runs a free-text search over several restaurant fields. Results are not paginated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			form := domain.BasicForm{Name: name, City: city, Cuisine: cuisine, Country: country}
			req, err := form.Request(pageSizeFor(cmd, limit))
			if err != nil {
				return err
			}
			if _, ok := req.(domain.Query); !ok {
				return fmt.Errorf("at least one of --name, --city, --cuisine or --country is required")
			}
			return runSearch(cmd, func(ctx context.Context, c *service.Coordinator) error {
				return c.Submit(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Restaurant name")
	cmd.Flags().StringVar(&city, "city", "", "City name")
	cmd.Flags().StringVar(&cuisine, "cuisine", "", "Cuisine, e.g. Italian")
	cmd.Flags().StringVar(&country, "country", "", "Country name")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultPageSize, "Maximum number of results")

	return cmd
}

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get <restaurant_id>",
		Short:   "Get a restaurant by ID",
		Aliases: []string{"view"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := domain.BasicForm{RestaurantID: args[0]}.Request(defaultPageSize)
			if err != nil {
				return err
			}
			return runSearch(cmd, func(ctx context.Context, c *service.Coordinator) error {
				return c.Submit(ctx, req)
			})
		},
	}
	return cmd
}

// NearbyCmd creates the nearby command.
func NearbyCmd() *cobra.Command {
	var (
		lat, lng, radius string
		limit            int
	)

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "Find restaurants around a location",
		RunE: func(cmd *cobra.Command, args []string) error {
			form := domain.LocationForm{Latitude: lat, Longitude: lng, Radius: radius}
			req, err := form.Request(pageSizeFor(cmd, limit))
			if err != nil {
				return err
			}
			return runSearch(cmd, func(ctx context.Context, c *service.Coordinator) error {
				return c.Submit(ctx, req)
			})
		},
	}

	cmd.Flags().StringVar(&lat, "lat", "", "Latitude, e.g. 40.7128")
	cmd.Flags().StringVar(&lng, "lng", "", "Longitude, e.g. -74.0060")
	cmd.Flags().StringVar(&radius, "radius", strconv.FormatFloat(domain.DefaultLocationRadiusKm, 'f', -1, 64), "Search radius in km")
	cmd.Flags().IntVarP(&limit, "limit", "n", defaultPageSize, "Maximum number of results")

	return cmd
}

// SemanticCmd creates the semantic command.
func SemanticCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "semantic <query>",
		Short:   "Smart search with natural language",
		Long:    "Ranks restaurants by similarity to a description such as 'romantic dinner for two'.",
		Aliases: []string{"smart"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := domain.SemanticForm{Query: strings.Join(args, " ")}
			req, err := form.Request(pageSizeFor(cmd, limit))
			if err != nil {
				return err
			}
			return runSearch(cmd, func(ctx context.Context, c *service.Coordinator) error {
				return c.Submit(ctx, req)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", defaultPageSize, "Maximum number of results")

	return cmd
}

// CountriesCmd creates the countries command.
func CountriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List the countries restaurants can be filtered by",
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := NewTransportWithCmd(cmd)
			if err != nil {
				return err
			}
			countries, err := tr.ListCountries(cmd.Context())
			if err != nil {
				return err
			}

			outputJSON, _ := cmd.Flags().GetBool("output")
			if outputJSON {
				return printJSON(cmd.OutOrStdout(), countries)
			}
			for _, c := range countries {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
}
