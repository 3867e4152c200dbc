package services

// Services bundles every entity service for the transport layer.
type Services struct {
	Users        *UserService
	Marketplaces *MarketplaceService
	Memberships  *MembershipService
	Listings     *ListingService
	Auctions     *AuctionService
	Cards        *CardService
	Messages     *MessageService
}

// New builds all entity services on one pipeline.
func New(p *Pipeline, tokens TokenIssuer) *Services {
	return &Services{
		Users:        NewUserService(p, tokens),
		Marketplaces: NewMarketplaceService(p),
		Memberships:  NewMembershipService(p),
		Listings:     NewListingService(p),
		Auctions:     NewAuctionService(p),
		Cards:        NewCardService(p),
		Messages:     NewMessageService(p),
	}
}
