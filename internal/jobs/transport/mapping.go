package transport

import (
	"itad_portal_backend/internal/jobs/domain"
	"itad_portal_backend/internal/jobs/repository"
	"itad_portal_backend/internal/jobs/service"
)

func (r AddressRequest) ToDomain() domain.Address {
	return domain.Address{
		Line1:    r.Line1,
		Line2:    r.Line2,
		City:     r.City,
		County:   r.County,
		Postcode: r.Postcode,
		Country:  r.Country,
	}
}

func (r ContactRequest) ToDomain() domain.Contact {
	return domain.Contact{Name: r.Name, Phone: r.Phone, Email: r.Email}
}

func (r CreateJobRequest) ToInput() service.NewJobInput {
	in := service.NewJobInput{
		ClientID:       r.ClientID,
		CollectionDate: r.CollectionDate,
		CollectionType: r.CollectionType,
		Notes:          r.Notes,
	}
	if r.Address != nil {
		a := r.Address.ToDomain()
		in.Address = &a
	}
	if r.OnsiteContact != nil {
		c := r.OnsiteContact.ToDomain()
		in.OnsiteContact = &c
	}
	return in
}

func (r UpdateJobRequest) ToPatch() domain.JobPatch {
	p := domain.JobPatch{
		CollectionDate: r.CollectionDate,
		CollectionType: r.CollectionType,
		Notes:          r.Notes,
	}
	if r.Address != nil {
		a := r.Address.ToDomain()
		p.Address = &a
	}
	if r.OnsiteContact != nil {
		c := r.OnsiteContact.ToDomain()
		p.OnsiteContact = &c
	}
	return p
}

func (r ItemRequest) ToDomain() domain.Item {
	it := domain.Item{
		ItemNumber:                r.ItemNumber,
		OriginalItemNumber:        r.OriginalItemNumber,
		Quantity:                  r.Quantity,
		CategoryID:                r.CategoryID,
		SubCategoryID:             r.SubCategoryID,
		Make:                      r.Make,
		Model:                     r.Model,
		Specification:             r.Specification,
		ErasureRequired:           r.ErasureRequired,
		ProcessingMake:            r.ProcessingMake,
		ProcessingModel:           r.ProcessingModel,
		ProcessingSpecification:   r.ProcessingSpecification,
		ProcessingErasureRequired: r.ProcessingErasureRequired,
		ProcessingDataStatus:      r.ProcessingDataStatus,
		SerialNumber:              r.SerialNumber,
		AssetTag:                  r.AssetTag,
	}
	if r.ID != nil {
		it.ID = *r.ID
	}
	return it
}

func (r BulkSaveItemsRequest) ToDomain() service.BulkSaveRequest {
	items := make([]domain.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, it.ToDomain())
	}
	return service.BulkSaveRequest{
		Phase:           domain.Phase(r.Phase),
		Items:           items,
		ExpectedVersion: r.ItemsVersion,
	}
}

func NewJobResponse(j *domain.Job) JobResponse {
	next := j.Status.Next()
	allowed := make([]string, 0, len(next))
	for _, s := range next {
		allowed = append(allowed, string(s))
	}
	return JobResponse{
		ID:             j.ID,
		JobID:          j.JobID,
		ClientID:       j.ClientID,
		Status:         string(j.Status),
		AllowedNext:    allowed,
		Editable:       j.Status.IsEditable(),
		CollectionDate: j.CollectionDate,
		CollectionType: j.CollectionType,
		Address: AddressResponse{
			Line1:    j.Address.Line1,
			Line2:    j.Address.Line2,
			City:     j.Address.City,
			County:   j.Address.County,
			Postcode: j.Address.Postcode,
			Country:  j.Address.Country,
		},
		OnsiteContact: ContactResponse{
			Name:  j.OnsiteContact.Name,
			Phone: j.OnsiteContact.Phone,
			Email: j.OnsiteContact.Email,
		},
		JobQuote:          j.JobQuote,
		QuoteInformation:  j.QuoteInformation,
		CustomerSignature: signatureResponse(j.CustomerSignature),
		DriverSignature:   signatureResponse(j.DriverSignature),
		StaffSignature:    signatureResponse(j.StaffSignature),
		ReceivedDate:      j.ReceivedDate,
		Notes:             j.Notes,
		ItemsVersion:      j.ItemsVersion,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}

func signatureResponse(s *domain.Signature) *SignatureResponse {
	if s == nil {
		return nil
	}
	return &SignatureResponse{Name: s.Name, DocumentKey: s.DocumentKey, SignedAt: s.SignedAt}
}

func NewJobListResponse(res *repository.ListResult) JobListResponse {
	items := make([]JobResponse, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, NewJobResponse(&res.Items[i]))
	}
	return JobListResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}
}

func NewItemResponse(it domain.Item) ItemResponse {
	resp := ItemResponse{
		ItemNumber:                it.ItemNumber,
		OriginalItemNumber:        it.OriginalItemNumber,
		Quantity:                  it.Quantity,
		CategoryID:                it.CategoryID,
		SubCategoryID:             it.SubCategoryID,
		Make:                      it.Make,
		Model:                     it.Model,
		Specification:             it.Specification,
		ErasureRequired:           it.ErasureRequired,
		ProcessingMake:            it.ProcessingMake,
		ProcessingModel:           it.ProcessingModel,
		ProcessingSpecification:   it.ProcessingSpecification,
		ProcessingErasureRequired: it.ProcessingErasureRequired,
		ProcessingDataStatus:      it.ProcessingDataStatus,
		SerialNumber:              it.SerialNumber,
		AssetTag:                  it.AssetTag,
		Added:                     string(it.Added),
	}
	if !it.IsNew() {
		id := it.ID
		resp.ID = &id
	}
	return resp
}

func NewItemResponses(items []domain.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, NewItemResponse(it))
	}
	return out
}

func NewAuditResponse(e domain.AuditEntry) AuditResponse {
	return AuditResponse{
		ID:        e.ID,
		StaffID:   e.StaffID,
		Content:   e.Content,
		IsSystem:  e.IsSystem,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func NewAuditResponses(entries []domain.AuditEntry) []AuditResponse {
	out := make([]AuditResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewAuditResponse(e))
	}
	return out
}
