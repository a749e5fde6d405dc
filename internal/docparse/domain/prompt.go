// Package domain holds the document extraction prompt and the rules for
// turning a model reply into a parsed result.
package domain

// PDFMIMEType is the only upload type the parser accepts.
const PDFMIMEType = "application/pdf"

// ExtractionPrompt is sent verbatim with every document.
const ExtractionPrompt = `Analyze this medical records document and extract all relevant information. Return a JSON object with the following structure:
{
  "document_type": "type of document (e.g., oncology report, biopsy results, blood test results, doctor's diagnosis report, etc.)",
  "metadata": {
    "title": "document title if available",
    "date": "date of information",
    "author": "author if available"
  },
  "key_parameters": {
    // All relevant parameters extracted from the document
    // Structure this based on what makes sense for the document type. For example:
      //If it's a biopsy report, extract the tumor information, any comments
  },
  "summary": "brief summary of the document content"
}

Be intelligent about what parameters are relevant based on the document type. For example:
- Invoices: extract amounts, dates, vendor info, line items
- Resumes: extract name, contact, experience, education, skills
- Contracts: extract parties, terms, dates, obligations
- Reports: extract key findings, data points, conclusions

Return ONLY the JSON object, no additional text.`
