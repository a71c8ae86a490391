package namespace

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	membershipCommandUseConstant   = "membership <username>"
	membershipCommandShortConstant = "List the groups a user belongs to with their access level"
	membershipCommandLongConstant  = "Membership walks the users subgroup tree once, caches every group's direct members, and prints one line per group the named user belongs to."
	missingLoggerProviderConstant  = "logger provider is required"
	missingClientProviderConstant  = "client provider is required"
	membershipLineTemplateConstant = "%s\n"
	noMembershipTemplateConstant   = "%s is not a member of any group\n"
)

// MembershipClient joins the traversal and member listing surfaces needed by the membership command.
type MembershipClient interface {
	Client
	MemberLister
}

// MembershipCommandBuilder assembles the membership cobra command.
type MembershipCommandBuilder struct {
	LoggerProvider         func() *zap.Logger
	ClientProvider         func() (MembershipClient, error)
	RootGroupProvider      func() string
	UsersGroupPathProvider func() string
}

// Build constructs the membership cobra command.
func (builder *MembershipCommandBuilder) Build() (*cobra.Command, error) {
	if builder.LoggerProvider == nil {
		return nil, errors.New(missingLoggerProviderConstant)
	}
	if builder.ClientProvider == nil {
		return nil, errors.New(missingClientProviderConstant)
	}

	command := &cobra.Command{
		Use:   membershipCommandUseConstant,
		Short: membershipCommandShortConstant,
		Long:  membershipCommandLongConstant,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			client, clientError := builder.ClientProvider()
			if clientError != nil {
				return clientError
			}

			rootGroupName := ""
			if builder.RootGroupProvider != nil {
				rootGroupName = builder.RootGroupProvider()
			}

			resolver, resolverError := NewResolver(client, NewPathResolver(rootGroupName))
			if resolverError != nil {
				return resolverError
			}
			walker, walkerError := NewWalker(client, resolver)
			if walkerError != nil {
				return walkerError
			}
			usersGroupPath := ""
			if builder.UsersGroupPathProvider != nil {
				usersGroupPath = builder.UsersGroupPathProvider()
			}
			membershipIndex, indexError := NewMembershipIndex(MembershipIndexDependencies{
				Walker:         walker,
				MemberLister:   client,
				UsersGroupPath: usersGroupPath,
			})
			if indexError != nil {
				return indexError
			}

			username := arguments[0]
			membershipEntries, membershipError := membershipIndex.MembershipOf(command.Context(), username)
			if membershipError != nil {
				return membershipError
			}
			if len(membershipEntries) == 0 {
				fmt.Fprintf(command.OutOrStdout(), noMembershipTemplateConstant, username)
				return nil
			}
			for _, membershipEntry := range membershipEntries {
				fmt.Fprintf(command.OutOrStdout(), membershipLineTemplateConstant, membershipEntry)
			}
			return nil
		},
	}
	return command, nil
}
