package application

import "github.com/ellcworth/shipment-service/internal/domain"

// ToShipmentDTO converts a domain Shipment to ShipmentDTO
func ToShipmentDTO(shipment *domain.Shipment) *ShipmentDTO {
	if shipment == nil {
		return nil
	}

	dto := &ShipmentDTO{
		ID:           shipment.ID.Hex(),
		Reference:    shipment.Reference,
		CustomerID:   shipment.CustomerID,
		Cargo:        ToCargoDTO(shipment.Cargo),
		Mode:         string(shipment.Mode),
		Route:        ToRouteDTO(shipment.Route),
		Status:       string(shipment.Status),
		CancelReason: shipment.CancelReason,
		Pricing:      ToPricingDTO(shipment.Pricing),
		Shipper:      ToPartyDTO(shipment.Shipper),
		Consignee:    ToPartyDTO(shipment.Consignee),
		NotifyParty:  ToPartyDTO(shipment.NotifyParty),
		Notifications: NotificationsDTO{
			PendingSent:   shipment.Notifications.PendingSent,
			DeliveredSent: shipment.Notifications.DeliveredSent,
		},
		Version:     shipment.Version,
		DeliveredAt: shipment.DeliveredAt,
		CreatedAt:   shipment.CreatedAt,
		UpdatedAt:   shipment.UpdatedAt,
	}

	if shipment.HeldFrom != nil {
		dto.HeldFrom = string(*shipment.HeldFrom)
	}

	if shipment.Voyage != nil {
		dto.Voyage = &VoyageDTO{
			CarrierName:     shipment.Voyage.CarrierName,
			Vessel:          shipment.Voyage.Vessel,
			VoyageNo:        shipment.Voyage.VoyageNo,
			ETD:             shipment.Voyage.ETD,
			ETA:             shipment.Voyage.ETA,
			ActualDeparture: shipment.Voyage.ActualDeparture,
			ActualArrival:   shipment.Voyage.ActualArrival,
		}
	}

	for _, p := range shipment.Payments {
		dto.Payments = append(dto.Payments, PaymentDTO{
			Provider:    p.Provider,
			ProviderRef: p.ProviderRef,
			Amount:      p.Amount.Amount,
			Currency:    p.Amount.Currency,
			Succeeded:   p.Succeeded,
			AttemptedAt: p.AttemptedAt,
		})
	}

	for _, d := range shipment.Documents {
		dto.Documents = append(dto.Documents, DocumentDTO{
			Type:       d.Type,
			Name:       d.Name,
			URL:        d.URL,
			UploadedBy: d.UploadedBy,
			UploadedAt: d.UploadedAt,
		})
	}

	for _, e := range shipment.Tracking {
		dto.Tracking = append(dto.Tracking, TrackingEventDTO{
			ID:          e.ID,
			Code:        e.Code,
			Description: e.Description,
			Location:    e.Location,
			Meta:        e.Meta,
			RecordedAt:  e.RecordedAt,
		})
	}

	return dto
}

// ToCargoDTO converts a domain Cargo to CargoDTO
func ToCargoDTO(cargo domain.Cargo) CargoDTO {
	dto := CargoDTO{Type: string(cargo.Type)}

	if cargo.Vehicle != nil {
		dto.Vehicle = &VehicleCargoDTO{
			VIN:       cargo.Vehicle.VIN,
			Make:      cargo.Vehicle.Make,
			Model:     cargo.Vehicle.Model,
			Year:      cargo.Vehicle.Year,
			BookingNo: cargo.Vehicle.BookingNo,
		}
	}
	if cargo.Container != nil {
		dto.Container = &ContainerCargoDTO{
			ContainerNo: cargo.Container.ContainerNo,
			Size:        cargo.Container.Size,
			SealNo:      cargo.Container.SealNo,
		}
	}
	if cargo.LCL != nil {
		dto.LCL = &LCLCargoDTO{
			Description: cargo.LCL.Description,
			WeightKg:    cargo.LCL.WeightKg,
			VolumeM3:    cargo.LCL.VolumeM3,
			Pieces:      cargo.LCL.Pieces,
		}
	}

	return dto
}

// ToRouteDTO converts a domain Route to RouteDTO
func ToRouteDTO(route domain.Route) RouteDTO {
	return RouteDTO{
		Origin:             route.Origin,
		OriginCountry:      route.OriginCountry,
		Destination:        route.Destination,
		DestinationCountry: route.DestinationCountry,
		PickupLocation:     route.PickupLocation,
	}
}

// ToPartyDTO converts a domain Party to PartyDTO
func ToPartyDTO(party *domain.Party) *PartyDTO {
	if party == nil {
		return nil
	}
	return &PartyDTO{
		Name:    party.Name,
		Email:   party.Email,
		Phone:   party.Phone,
		Address: party.Address,
	}
}

// ToPricingDTO converts a domain Pricing to PricingDTO, computing the total
func ToPricingDTO(pricing domain.Pricing) PricingDTO {
	dto := PricingDTO{
		Currency:  pricing.Currency,
		Base:      pricing.Base,
		Insurance: pricing.Insurance,
		VAT:       pricing.VAT,
		Discount:  pricing.Discount,
		Total:     pricing.Total(),
	}

	for _, s := range pricing.Surcharges {
		dto.Surcharges = append(dto.Surcharges, SurchargeDTO{
			Code:   s.Code,
			Label:  s.Label,
			Amount: s.Amount,
		})
	}

	return dto
}

// ToShipmentDTOs converts a slice of domain Shipments to ShipmentDTOs
func ToShipmentDTOs(shipments []*domain.Shipment) []ShipmentDTO {
	dtos := make([]ShipmentDTO, 0, len(shipments))
	for _, shipment := range shipments {
		if dto := ToShipmentDTO(shipment); dto != nil {
			dtos = append(dtos, *dto)
		}
	}
	return dtos
}
